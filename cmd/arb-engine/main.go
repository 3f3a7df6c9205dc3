package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/bot"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/config"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/dash"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/execution"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/funding"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/ledger"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/marketsrc"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/metrics"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/risk"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/scanner"
)

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := bot.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("received signal, shutting down...")
		cancel()
	}()

	metrics.Serve(ctx, cfg.Metrics.ListenAddr, nil, logger)

	riskMgr := risk.NewManager(risk.ParametersFromConfig(cfg), logger)

	if cfg.Market.BaseURL == "" {
		logger.Warn("market.base_url not set; every scan will fall back to the synthetic generator")
	}
	market := marketsrc.NewClient(cfg.Market.BaseURL, cfg.Market.APIKey, logger)
	synth := scanner.NewSynthetic(time.Now().UnixNano())
	scan := scanner.New(market, synth, logger)

	var (
		tradeLedger execution.Ledger
		oppLedger   bot.OpportunityLedger
		redisLedger *ledger.Redis
	)
	if cfg.Redis.Addr != "" {
		redisLedger = ledger.NewRedis(cfg, logger)
		defer redisLedger.Close()
		tradeLedger = redisLedger
		oppLedger = redisLedger
	} else {
		logger.Warn("redis.addr not set; trade ledger disabled")
	}

	exec := execution.NewPaperExecutor(time.Now().UnixNano(), logger)
	coord := execution.NewCoordinator(exec, tradeLedger, riskMgr, logger)

	var fund bot.FundChecker
	if cfg.Funding.AccountID != "" {
		fund = funding.NewClient(cfg.Funding.HorizonURL, logger)
	}

	sup := bot.NewSupervisor(cfg, scan, riskMgr, coord, oppLedger, fund, logger)

	store := dash.NewStore()
	if cfg.Dash.ListenAddr != "" {
		go dash.StartHTTP(ctx, store, riskMgr.Summary, cfg.Dash.ListenAddr)
	}
	go func() {
		for ev := range sup.Events() {
			store.Add(ev)
		}
	}()

	// push the latest risk summary to redis for external viewers
	if redisLedger != nil {
		go func() {
			t := time.NewTicker(cfg.ScanInterval())
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					if err := redisLedger.UpsertRiskSummary(ctx, riskMgr.Summary()); err != nil {
						logger.Warn("risk summary write failed", zap.Error(err))
					}
				}
			}
		}()
	}

	// day-boundary scheduler for the daily risk reset
	go func() {
		for {
			now := time.Now().UTC()
			next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
			t := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
				riskMgr.ResetDailyMetrics()
			}
		}
	}()

	sup.Run(ctx)
}
