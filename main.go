package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"bitget-trading-bot/config"
	"bitget-trading-bot/internal/api"
	"bitget-trading-bot/internal/bitget"
	"bitget-trading-bot/internal/events"
	"bitget-trading-bot/internal/executor"
	"bitget-trading-bot/internal/feed"
	"bitget-trading-bot/internal/logging"
	"bitget-trading-bot/internal/market"
	"bitget-trading-bot/internal/risk"
	"bitget-trading-bot/internal/scheduler"
	"bitget-trading-bot/internal/slots"
	"bitget-trading-bot/internal/target"
	"bitget-trading-bot/internal/vault"
)

// statusSource adapts the live components to the API's read surface.
type statusSource struct {
	feed  *feed.Feed
	coord *executor.Coordinator
}

func (s *statusSource) FeedStats() feed.Stats { return s.feed.GetStats() }
func (s *statusSource) RiskState() risk.State { return s.coord.RiskState() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.Setup(cfg.LoggingConfig)
	logger := logging.Component("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Credentials: Vault when enabled, environment otherwise. Live
	// trading without credentials is a startup error; dry-run proceeds
	// on a simulated balance.
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("vault client")
	}
	creds, err := vaultClient.Credentials(ctx)
	if err != nil {
		if cfg.TradingConfig.EnableTrading {
			logger.Fatal().Err(err).Msg("credentials required for live trading")
		}
		logger.Warn().Err(err).Msg("no credentials, continuing in dry-run")
	}
	if cfg.TradingConfig.EnableTrading && (creds.APIKey == "" || creds.SecretKey == "") {
		logger.Fatal().Msg("live trading enabled but credentials are missing")
	}

	dryRun := !cfg.TradingConfig.EnableTrading
	client := bitget.NewClient(creds, dryRun)
	if cfg.TradingConfig.BaseURL != "" {
		client.SetBaseURL(cfg.TradingConfig.BaseURL)
	}
	client.SetSimBalance(cfg.TradingConfig.SimBalance)

	startingEquity, err := client.GetAccountBalance()
	if err != nil {
		logger.Warn().Err(err).Float64("sim_balance", cfg.TradingConfig.SimBalance).
			Msg("balance unavailable at startup, seeding from sim balance")
		startingEquity = cfg.TradingConfig.SimBalance
	}
	logger.Info().Float64("equity", startingEquity).Bool("dry_run", dryRun).Msg("starting")

	// Shared state.
	store := market.NewStore(cfg.TradingConfig.WindowSize)
	bus := events.NewBus()
	recorder := events.NewRecorder(bus, 200)

	slotCaps := make(map[string]int, len(cfg.Modes))
	modeTargets := make(map[string]target.ModeConfig, len(cfg.Modes))
	symbols := make([]string, 0)
	schedModes := make([]scheduler.Mode, 0, len(cfg.Modes))

	names := make([]string, 0, len(cfg.Modes))
	for name := range cfg.Modes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mode := cfg.Modes[name]
		slotCaps[name] = mode.MaxOrders
		modeTargets[name] = mode.Target
		symbols = append(symbols, mode.Pairs...)
		schedModes = append(schedModes, scheduler.Mode{
			Name:        name,
			Symbols:     mode.Pairs,
			Leverage:    mode.Leverage,
			Signal:      mode.Signal,
			SymbolDelay: time.Duration(mode.SymbolDelay),
			CycleDelay:  time.Duration(mode.CycleDelay),
			StaleAfter:  time.Duration(mode.StaleAfter),
			ATRPeriod:   mode.ATRPeriod,
		})
	}

	ledger := slots.NewLedger(slotCaps, dryRun)
	gate := risk.NewGate(cfg.RiskConfig)
	tracker := target.NewTracker(modeTargets, time.Now())
	coord := executor.New(cfg.ExecutorConfig, client, ledger, gate, tracker, bus, startingEquity)

	// Structured log line per settled trade.
	tradeLog := logging.Component("trades")
	bus.Subscribe(events.EventTradeSettled, func(e events.Event) {
		tradeLog.Info().Fields(e.Data).Msg("trade settled")
	})

	feedCfg := cfg.FeedConfig
	feedCfg.Symbols = symbols
	marketFeed := feed.New(feedCfg, store)

	server := api.NewServer(cfg.ServerConfig, &statusSource{feed: marketFeed, coord: coord}, tracker, ledger, recorder)

	go func() {
		if err := marketFeed.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("market feed stopped")
			cancel()
		}
	}()
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("status server stopped")
			cancel()
		}
	}()

	sched := scheduler.New(store, coord, tracker, bus, schedModes)
	schedDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedDone)
	}()

	// Block until a shutdown signal, then drain.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
		logger.Info().Msg("shutting down after component failure")
	}

	cancel()
	<-schedDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("status server shutdown")
	}
	logger.Info().Msg("stopped")
}
