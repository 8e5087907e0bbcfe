package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"copytrader/cmd/bot"
	"copytrader/cmd/keys"
	"copytrader/cmd/traders"
)

var Version string

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()
	SetupLogger()

	app := cli.NewApp()
	app.Name = "Copytrader CMD"
	app.Usage = "The Polymarket copy trading command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		botCMD,
		tradersCMD,
		keysCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	botCMD = cli.Command{
		Name:        "bot",
		Usage:       "run the copy trading bot",
		Action:      botAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the copy trading bot until interrupted`,
	}
	tradersCMD = cli.Command{
		Name:      "traders",
		Usage:     "generate traders.json from the leaderboard",
		Action:    tradersAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.IntFlag{Name: "limit", Value: 20, Usage: "number of leaderboard entries"},
			cli.StringFlag{Name: "sort-by", Value: "pnl", Usage: "leaderboard sort field (pnl, volume)"},
			cli.StringFlag{Name: "time-frame", Value: "30d", Usage: "leaderboard window (7d, 30d, all)"},
			cli.StringFlag{Name: "output", Value: "config/traders.json", Usage: "output path"},
		},
		Description: `Fetch the top traders and write a disabled starter config`,
	}
	keysCMD = cli.Command{
		Name:      "keys",
		Usage:     "encrypt CLOB API credentials",
		Action:    keysAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "secret", Usage: "plaintext CLOB API secret"},
			cli.StringFlag{Name: "passphrase", Usage: "plaintext CLOB API passphrase"},
		},
		Description: `Seal credentials with EXCHANGE_CREDENTIALS_KEY and print the .env lines`,
	}
)

func botAction(_ *cli.Context) error {

	logger.Info("Starting copy trading bot CMD")

	b := &bot.Bot{}
	err := b.Start()
	if err != nil {
		logger.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func keysAction(c *cli.Context) error {

	e := &keys.Encryptor{
		Secret:     c.String("secret"),
		Passphrase: c.String("passphrase"),
	}
	err := e.Start()
	if err != nil {
		logger.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func tradersAction(c *cli.Context) error {

	logger.Info("Starting traders config generator CMD")

	g := &traders.Generator{
		Limit:     c.Int("limit"),
		SortBy:    c.String("sort-by"),
		TimeFrame: c.String("time-frame"),
		Output:    c.String("output"),
	}
	err := g.Start()
	if err != nil {
		logger.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
