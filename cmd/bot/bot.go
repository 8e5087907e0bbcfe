package bot

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"copytrader/src/database"
	"copytrader/src/executors"
	"copytrader/src/server"
)

// Bot is the copy trading daemon command.
type Bot struct{}

func (b *Bot) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	dbConfig := database.GetConfig()
	if dbConfig.EnableDB {
		if err := database.InitMainDB(); err != nil {
			logrus.WithError(err).Fatal("Failed to connect to main database")
			return err
		}
	} else {
		logrus.Info("database disabled, copy trade logs will not be persisted")
	}

	runtime, err := executors.Build()
	if err != nil {
		logrus.WithError(err).Error("Failed to build copy trading runtime")
		return err
	}

	// A typed nil would make the interface non-nil; only hand the store
	// over when the database is actually wired.
	var history server.HistoryStore
	if runtime.Repo != nil {
		history = runtime.Repo
	}

	go server.StartServer(ctx, server.GetConfig().Port, runtime.Stats, runtime.Lifecycle, history)

	if err := runtime.Run(ctx); err != nil {
		logrus.WithError(err).Error("Copy trading loop exited with error")
		return err
	}

	return nil
}
