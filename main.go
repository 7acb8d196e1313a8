package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	callx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/call"
	dialoguex "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/dialogue"
	intentx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/intent"
	"github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/llm"
	memoryx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/memory"
	orderx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/order"
	summaryx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/summary"
	configx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/pkg/config"
	_ "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/pkg/qstash"
)

type AppConfig struct {
	CustomerPhone string `envconfig:"CUSTOMER_PHONE" default:"9876543210"`

	OrderBackend        string `envconfig:"ORDER_BACKEND" default:"csv"`
	OrdersCSVPath       string `envconfig:"ORDERS_CSV_PATH" default:"data/orders.csv"`
	PostgresSeedFromCSV bool   `envconfig:"POSTGRES_SEED_FROM_CSV" default:"false"`

	NameStrategy   string `envconfig:"NAME_STRATEGY" default:"raw"`
	MaxSilentTurns int    `envconfig:"MAX_SILENT_TURNS" default:"2"`

	SummaryBackend    string `envconfig:"SUMMARY_BACKEND" default:"none"`
	ArchiveEnabled    bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	NotifyEnabled     bool   `envconfig:"NOTIFY_ENABLED" default:"false"`
	NotifyDestination string `envconfig:"NOTIFY_DESTINATION"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("call failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	appCfg, err := configx.New[AppConfig]("")
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	store, closeStore, err := buildOrderStore(ctx, appCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []callx.Option{
		callx.WithMaxSilentTurns(appCfg.MaxSilentTurns),
		callx.WithEngineOptions(dialoguex.WithNameStrategy(nameStrategy(appCfg.NameStrategy))),
	}

	if backend := summaryx.Backend(strings.ToLower(strings.TrimSpace(appCfg.SummaryBackend))); backend != summaryx.BackendNone && backend != "" {
		llmCfg, err := configx.New[llm.Config]("OPENROUTER")
		if err != nil {
			return fmt.Errorf("load openrouter config: %w", err)
		}
		summarizer, err := summaryx.New(ctx, backend, *llmCfg)
		if err != nil {
			return fmt.Errorf("build summarizer: %w", err)
		}
		opts = append(opts, callx.WithSummarizer(summarizer))
	}

	if appCfg.ArchiveEnabled {
		redisCfg, err := configx.New[memoryx.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return fmt.Errorf("load upstash config: %w", err)
		}
		archiver, err := memoryx.NewUpstashArchiver(*redisCfg)
		if err != nil {
			return fmt.Errorf("build archiver: %w", err)
		}
		opts = append(opts, callx.WithArchiver(archiver))
	}

	if appCfg.NotifyEnabled {
		qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
		if err != nil {
			return fmt.Errorf("load qstash config: %w", err)
		}
		client, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			return fmt.Errorf("build qstash client: %w", err)
		}
		notifier, err := callx.NewQStashNotifier(client, appCfg.NotifyDestination)
		if err != nil {
			return fmt.Errorf("build notifier: %w", err)
		}
		opts = append(opts, callx.WithNotifier(notifier))
	}

	session, err := callx.NewSession(store, memoryx.New(), callx.ConsoleDevices(in, out), opts...)
	if err != nil {
		return err
	}

	outcome, err := session.Run(ctx, appCfg.CustomerPhone)
	if err != nil {
		return err
	}
	if outcome.Summary != "" {
		fmt.Fprintf(out, "summary: %s\n", outcome.Summary)
	}
	return nil
}

func buildOrderStore(ctx context.Context, cfg *AppConfig) (orderx.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(cfg.OrderBackend)) {
	case "", "csv":
		store, err := orderx.NewCSVStore(cfg.OrdersCSVPath)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case "memory":
		csvStore, err := orderx.NewCSVStore(cfg.OrdersCSVPath)
		if err != nil {
			return nil, noop, err
		}
		orders, err := csvStore.All(ctx)
		if err != nil {
			return nil, noop, err
		}
		return orderx.NewMemoryStore(orders...), noop, nil

	case "postgres":
		pgCfg, err := configx.New[orderx.PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, noop, fmt.Errorf("load postgres config: %w", err)
		}
		store, err := orderx.NewPostgresStore(*pgCfg)
		if err != nil {
			return nil, noop, err
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("close postgres store")
			}
		}
		if err := store.Migrate(ctx); err != nil {
			closeStore()
			return nil, noop, err
		}
		if cfg.PostgresSeedFromCSV {
			if err := seedPostgres(ctx, store, cfg.OrdersCSVPath); err != nil {
				closeStore()
				return nil, noop, err
			}
		}
		return store, closeStore, nil

	default:
		return nil, noop, fmt.Errorf("unknown ORDER_BACKEND %q", cfg.OrderBackend)
	}
}

func seedPostgres(ctx context.Context, store *orderx.PostgresStore, csvPath string) error {
	csvStore, err := orderx.NewCSVStore(csvPath)
	if err != nil {
		return err
	}
	orders, err := csvStore.All(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("orders", len(orders)).Msg("seeding postgres from csv")
	return store.Insert(ctx, orders...)
}

func nameStrategy(name string) intentx.NameStrategy {
	if strings.EqualFold(strings.TrimSpace(name), "pattern") {
		return intentx.PatternNameStrategy{}
	}
	return intentx.RawNameStrategy{}
}
