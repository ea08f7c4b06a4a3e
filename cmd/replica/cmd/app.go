package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/replica/internal/account"
	"github.com/assist-by/replica/internal/config"
	"github.com/assist-by/replica/internal/exchange/binance"
	"github.com/assist-by/replica/internal/ledger"
	"github.com/assist-by/replica/internal/logger"
	"github.com/assist-by/replica/internal/notification"
	"github.com/assist-by/replica/internal/notification/discord"
	"github.com/assist-by/replica/internal/persistence"
	"github.com/assist-by/replica/internal/reconcile"
	"github.com/assist-by/replica/internal/replication"
	"github.com/assist-by/replica/internal/retry"
	"github.com/assist-by/replica/internal/storage"
	"github.com/assist-by/replica/internal/storage/postgres"
	"github.com/assist-by/replica/internal/storage/sqlite"
)

// app은 서버와 CLI 명령이 공유하는 구성 요소입니다
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    storage.Store
	registry *account.Registry
	ledger   *ledger.Ledger
	gateways *binance.Factory
	notifier notification.Notifier

	flusher    *persistence.Flusher
	replicator *replication.Engine
	reconciler *reconcile.Engine
	refresher  *account.Refresher
}

// newApp은 설정을 읽고 저장된 상태를 복원한 뒤 모든 구성 요소를 연결합니다
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		registry: account.NewRegistry(),
		ledger:   ledger.New(),
	}

	a.flusher = persistence.NewFlusher(a.registry, a.ledger, store, log.Named("persistence"))
	if err := a.flusher.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("저장 상태 복원 실패: %w", err)
	}

	opts := []binance.ClientOption{
		binance.WithTimeout(cfg.Binance.Timeout),
		binance.WithTestnet(cfg.Binance.UseTestnet),
		binance.WithRecvWindow(cfg.Binance.RecvWindow),
		binance.WithQuoteAsset(cfg.Trading.QuoteAsset),
	}
	if cfg.Binance.FuturesURL != "" || cfg.Binance.SpotURL != "" {
		opts = append(opts, binance.WithBaseURLs(cfg.Binance.FuturesURL, cfg.Binance.SpotURL))
	}
	a.gateways = binance.NewFactory(cfg.Binance.WeightPerMinute, log.Named("binance"), opts...)

	a.notifier = notification.Nop{}
	if cfg.Discord.TradeWebhook != "" || cfg.Discord.ErrorWebhook != "" {
		a.notifier = discord.NewClient(cfg.Discord.TradeWebhook, cfg.Discord.ErrorWebhook, discord.WithTimeout(10*time.Second))
	}

	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.Retry.MaxRetries
	policy.BaseDelay = cfg.Retry.BaseDelay
	policy.MaxDelay = cfg.Retry.MaxDelay
	policy.Logger = log.Named("retry")

	a.replicator = replication.NewEngine(a.registry, a.ledger, a.gateways, policy,
		replication.Config{
			QuoteAsset:  cfg.Trading.QuoteAsset,
			MinNotional: cfg.Trading.FuturesMinNotional,
			MaxWorkers:  cfg.App.MaxWorkers,
		},
		replication.WithLogger(log.Named("replication")),
		replication.WithNotifier(a.notifier))

	a.reconciler = reconcile.NewEngine(a.registry, a.ledger, a.gateways, policy,
		reconcile.WithLogger(log.Named("reconcile")),
		reconcile.WithNotifier(a.notifier),
		reconcile.WithMaxWorkers(cfg.App.MaxWorkers))

	a.refresher = account.NewRefresher(a.registry, a.gateways, policy, cfg.App.MaxWorkers, log.Named("refresher"))

	return a, nil
}

// Close는 저장소를 닫고 로그를 비웁니다
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("저장소 닫기 실패", zap.Error(err))
	}
	_ = a.log.Sync()
}

// openStore는 STORAGE_DRIVER에 맞는 저장소를 엽니다
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlite.New(cfg.Storage.DSN)
	case "postgres":
		return postgres.New(ctx, cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", storage.ErrUnknownDriver, cfg.Storage.Driver)
	}
}
