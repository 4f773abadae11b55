package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyablohunter/betfair-underdog-bot/config"
	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/betfair"
	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/eventlog"
	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/notify"
	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/storage"
	"github.com/dyablohunter/betfair-underdog-bot/internal/adapters/stream"
	"github.com/dyablohunter/betfair-underdog-bot/internal/application/bot"
	"github.com/dyablohunter/betfair-underdog-bot/internal/application/staking"
	"github.com/dyablohunter/betfair-underdog-bot/internal/domain"
	"github.com/dyablohunter/betfair-underdog-bot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	live := flag.Bool("live", false, "place real orders (default: simulated)")
	testMode := flag.Bool("test", false, "test mode: single bet at the target odds, no score logic")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full market table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("underdog bot starting",
		"config", *configPath,
		"live", *live,
		"test", *testMode,
		"policy", cfg.Staking.Policy,
		"balance", cfg.Staking.InitialBalance,
	)

	creds := cfg.Credentials
	if creds.AppKey == "" {
		slog.Error("BETFAIR_APP_KEY is not set")
		os.Exit(1)
	}

	client := betfair.NewClient(cfg.API.BettingBase, cfg.API.LoginBase, creds.AppKey)

	if creds.Session != "" {
		client.SetSession(creds.Session)
	} else {
		if creds.Username == "" || creds.Password == "" {
			slog.Error("no session token and no BETFAIR_USERNAME/BETFAIR_PASSWORD to log in with")
			os.Exit(1)
		}
		_, err = client.Login(context.Background(), betfair.LoginParams{
			Username: creds.Username,
			Password: creds.Password,
			CertFile: creds.CertFile,
			KeyFile:  creds.KeyFile,
		})
		if err != nil {
			slog.Error("login failed", "err", err)
			os.Exit(1)
		}
		slog.Info("logged in", "user", creds.Username)
	}

	var catalogue ports.MarketCatalogue = betfair.NewCatalogue(client, betfair.CatalogueFilter{
		EventTypeID: cfg.Markets.EventTypeID,
		MarketType:  cfg.Markets.MarketType,
		MaxMarkets:  cfg.Markets.MaxMarkets,
	})

	markets, err := catalogue.ListOpenMarkets(context.Background())
	if err != nil {
		slog.Error("failed to list markets", "err", err)
		os.Exit(1)
	}
	if len(markets) == 0 {
		slog.Error("no open markets to track — nothing to do")
		os.Exit(1)
	}
	slog.Info("markets loaded", "count", len(markets))

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	events, err := eventlog.NewWriter(cfg.Storage.EventsDir)
	if err != nil {
		slog.Error("failed to open event log dir", "err", err, "dir", cfg.Storage.EventsDir)
		os.Exit(1)
	}
	defer events.Close()

	var exec ports.BetExecutor
	if *live {
		exec = betfair.NewTrader(client)
	} else {
		exec = staking.NewSimExecutor()
	}

	state := domain.NewStakingState(cfg.Staking.InitialBalance, cfg.Staking.Commission)
	engine := staking.New(staking.Config{
		Percentage:     cfg.Staking.Percentage,
		MinStake:       cfg.Staking.MinStake,
		Policy:         staking.Policy(cfg.Staking.Policy),
		TestMode:       *testMode,
		TestTargetOdds: cfg.Staking.TestTargetOdds,
		TestTolerance:  cfg.Staking.TestOddsTolerance,
	}, state, exec, events, store)

	notifier := notify.NewConsole(*table, store)

	b := bot.New(bot.Config{StatusInterval: cfg.StatusInterval()},
		markets, engine, nil, events, notifier)

	conn := stream.New(stream.Config{
		AppKey:         creds.AppKey,
		Session:        client.Session(),
		ReconnectDelay: cfg.ReconnectDelay(),
		Dial:           stream.TLSDialer(cfg.StreamAddr()),
	}, b)
	b.SetConn(conn)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := conn.Run(ctx); err != nil {
			slog.Error("stream connection exited", "err", err)
		}
	}()

	if err := b.Run(ctx); err != nil {
		slog.Error("bot exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("underdog bot stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
