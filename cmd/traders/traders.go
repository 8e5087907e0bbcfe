package traders

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"copytrader/src/connectors"
	"copytrader/src/model"
)

// Generator builds a starting traders.json from the public leaderboard. The
// generated entries are disabled so nothing is copied before a human review.
type Generator struct {
	Limit     int
	SortBy    string
	TimeFrame string
	Output    string
}

func (g *Generator) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connCfg := connectors.GetConfig()
	dataAPI := connectors.NewDataAPIClient(connCfg.DataAPIBaseURL, connCfg.HTTPTimeout)

	entries, err := dataAPI.GetLeaderboard(ctx, g.Limit, g.SortBy, g.TimeFrame)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch leaderboard")
		return err
	}

	list := make([]*model.TraderConfig, 0, len(entries))
	for _, entry := range entries {
		trader := &model.TraderConfig{
			Address:   entry.ProxyWallet,
			Nickname:  entry.Name,
			Enabled:   false,
			CopyBuys:  true,
			CopySells: true,
		}

		// Leaderboard rank does not mean the wallet still trades; flag
		// the quiet ones so the reviewer knows what to expect.
		recent, err := dataAPI.GetTrades(ctx, entry.ProxyWallet, 1, 0)
		switch {
		case err != nil:
			logrus.WithError(err).WithField("address", entry.ProxyWallet).
				Warn("could not check recent trades")
		case len(recent) == 0:
			trader.Notes = "no recent trades"
		}

		list = append(list, trader)
	}

	if err := os.MkdirAll(filepath.Dir(g.Output), 0o755); err != nil {
		return err
	}
	if err := model.WriteTraders(g.Output, list); err != nil {
		logrus.WithError(err).Error("Failed to write traders config")
		return err
	}

	logrus.WithFields(map[string]interface{}{
		"traders": len(list),
		"output":  g.Output,
	}).Info("traders config generated, review and enable entries before running the bot")

	return nil
}
