package executors

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"copytrader/src/connectors"
	"copytrader/src/database"
	"copytrader/src/executor"
	"copytrader/src/lifecycle"
	"copytrader/src/model"
	"copytrader/src/monitor"
	"copytrader/src/repository"
	"copytrader/src/security"
)

// Runtime is the assembled bot: monitor, coordinator, lifecycle manager and
// the pieces the status server exposes.
type Runtime struct {
	Monitor   *monitor.Monitor
	Lifecycle *lifecycle.Manager
	Stats     *Stats
	Repo      *repository.CopyTradeRepository
	feed      *connectors.UserFeed
}

// Build wires every component from configuration. Fatal configuration
// problems (missing traders file, ambiguous copy policy) surface here before
// anything touches the network.
func Build() (*Runtime, error) {
	config := GetConfig()

	copyCfg, err := model.NewCopyTradeConfig(
		config.AmountToCopy,
		config.PercentageToCopy,
		config.CopySell,
		config.OrderType,
		config.MinTradeSize,
		config.MaxTradeSize,
		time.Duration(config.GTCTimeoutSeconds)*time.Second,
	)
	if err != nil {
		return nil, err
	}

	traders, err := model.LoadTraders(config.TradersConfigPath)
	if err != nil {
		return nil, err
	}
	if len(traders) == 0 {
		return nil, errors.New("no traders configured")
	}

	enabled := 0
	for _, trader := range traders {
		if trader.Enabled {
			enabled++
		}
	}
	logger.WithFields(map[string]interface{}{
		"traders":    len(traders),
		"enabled":    enabled,
		"order_type": copyCfg.OrderType,
		"copy_mode":  copyCfg.Mode,
		"dry_run":    config.DryRun,
	}).Info("copy trading configuration loaded")
	if enabled == 0 {
		logger.Warn("no traders enabled, edit traders.json to enable traders")
	}

	connCfg := connectors.GetConfig()

	apiSecret, err := security.DecryptString(connCfg.CLOBAPISecret)
	if err != nil {
		return nil, err
	}
	apiPassphrase, err := security.DecryptString(connCfg.CLOBAPIPassphrase)
	if err != nil {
		return nil, err
	}

	dataAPI := connectors.NewDataAPIClient(connCfg.DataAPIBaseURL, connCfg.HTTPTimeout)
	gamma := connectors.NewGammaClient(connCfg.GammaBaseURL, connCfg.HTTPTimeout)
	clob := connectors.NewCLOBClient(
		connCfg.CLOBBaseURL,
		connCfg.CLOBAPIKey,
		apiSecret,
		apiPassphrase,
		connCfg.FunderAddress,
		connCfg.HTTPTimeout,
	)

	lifecycleMgr := lifecycle.NewManager(clob)
	stats := NewStats()

	var repo *repository.CopyTradeRepository
	if database.MainDB != nil {
		repo = repository.NewCopyTradeRepository()
	}

	sink := func(result model.CopyResult) {
		switch {
		case result.Success:
			stats.RecordExecuted()
			logger.WithFields(map[string]interface{}{
				"order_id":  result.OrderID,
				"copy_usdc": result.CopySizeUsdc,
			}).Info("copy trade executed")
		case result.Error != "":
			stats.RecordFailed()
			logger.WithField("error", result.Error).Warn("copy trade failed")
		default:
			stats.RecordSkipped()
			logger.WithField("reason", result.Reason).Info("copy trade skipped")
		}

		if repo != nil {
			if err := repo.Create(context.Background(), result.Log()); err != nil {
				logger.WithError(err).Warn("failed to persist copy trade log")
			}
		}
	}

	coordinator := executor.NewCoordinator(copyCfg, clob, gamma, lifecycleMgr, sink, config.DryRun)

	handler := func(trade model.Trade, trader *model.TraderConfig) {
		stats.RecordDetected()
		logger.WithFields(map[string]interface{}{
			"trader": trader.DisplayName(),
			"trade":  trade.String(),
			"time":   trade.Time().Format(time.RFC3339),
		}).Info("new trade detected")

		coordinator.HandleTrade(context.Background(), trade, trader)
	}

	mon := monitor.New(dataAPI, traders, handler, monitor.Options{
		PollInterval: config.PollInterval,
		SeenWindow:   config.SeenWindow,
		MaxInFlight:  config.MaxInFlight,
	})

	runtime := &Runtime{
		Monitor:   mon,
		Lifecycle: lifecycleMgr,
		Stats:     stats,
		Repo:      repo,
	}

	if config.EnableUserWS {
		runtime.feed = connectors.NewUserFeed(
			connCfg.UserWSURL,
			connCfg.CLOBAPIKey,
			apiSecret,
			apiPassphrase,
			mon.HandlePush,
		)
	}

	return runtime, nil
}

// StartLoop runs the bot until ctx is cancelled, then cancels every tracked
// resting order so none outlives the process with an untracked timer.
func StartLoop(ctx context.Context) error {
	runtime, err := Build()
	if err != nil {
		return err
	}
	return runtime.Run(ctx)
}

// Run drives the assembled runtime.
func (r *Runtime) Run(ctx context.Context) error {
	go r.Lifecycle.Run(ctx)
	if r.feed != nil {
		go r.feed.Run(ctx)
	}

	err := r.Monitor.Run(ctx)

	// Shutdown path: the venue may keep orders we fail to cancel; that is
	// reported by the lifecycle manager, not fatal.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.Lifecycle.CancelAll(shutdownCtx)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
