package svc

import (
	"context"
	"errors"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachepkg "hiloscan/internal/cache"
	"hiloscan/internal/config"
	"hiloscan/internal/model"
	signalpersist "hiloscan/internal/persistence/signal"
	"hiloscan/internal/repo"
	"hiloscan/pkg/confkit"
	"hiloscan/pkg/journal"
	marketpkg "hiloscan/pkg/market"
	_ "hiloscan/pkg/market/providers/brapi"
	notifypkg "hiloscan/pkg/notify"
	scanpkg "hiloscan/pkg/scan"
)

type ServiceContext struct {
	Config config.Config

	ScannerConfig  *scanpkg.Config
	NotifierConfig *notifypkg.Config

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Provider
	DefaultMarket   marketpkg.Provider

	DBConn sqlx.SqlConn
	Redis  *redis.Redis
	TTL    cachepkg.TTLSet
	Repos  *repo.Set

	SignalService *signalpersist.Service
	Notifier      *notifypkg.WhatsAppNotifier
	Scanner       *scanpkg.Scanner
}

func NewServiceContext(c config.Config, mainConfigPath string) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    cachepkg.NewTTLSet(c.TTL),
	}

	baseDir := confkit.BaseDir(mainConfigPath)

	// Scanner tuning. Hydrated sections carry a parsed value; reload from
	// the file path otherwise.
	svc.ScannerConfig = c.Scanner.Value
	if svc.ScannerConfig == nil && c.Scanner.File != "" {
		cfg, err := scanpkg.LoadConfig(confkit.ResolvePath(baseDir, c.Scanner.File))
		if err != nil {
			log.Fatalf("failed to load scanner config: %v", err)
		}
		svc.ScannerConfig = cfg
	}
	if svc.ScannerConfig == nil {
		svc.ScannerConfig = &scanpkg.Config{
			TrendPeriod:         10,
			ProfitTargetPercent: 50,
			Enabled:             true,
			CandleWindow:        "3mo",
			CandleInterval:      "1d",
		}
	}

	// Notifier endpoint.
	svc.NotifierConfig = c.Notifier.Value
	if svc.NotifierConfig == nil && c.Notifier.File != "" {
		cfg, err := notifypkg.LoadConfig(confkit.ResolvePath(baseDir, c.Notifier.File))
		if err != nil {
			log.Fatalf("failed to load notifier config: %v", err)
		}
		svc.NotifierConfig = cfg
	}

	// Market providers.
	marketCfg := c.Market.Value
	if marketCfg == nil && c.Market.File != "" {
		cfg, err := marketpkg.LoadConfig(confkit.ResolvePath(baseDir, c.Market.File))
		if err != nil {
			log.Fatalf("failed to load market config: %v", err)
		}
		marketCfg = cfg
	}
	if marketCfg != nil {
		providers, err := marketCfg.BuildProviders()
		if err != nil {
			log.Fatalf("failed to build market providers: %v", err)
		}
		svc.MarketConfig = marketCfg
		svc.MarketProviders = providers
		if marketCfg.Default != "" {
			svc.DefaultMarket = providers[marketCfg.Default]
		}
	}

	// Storage. Redis is optional; Postgres is required for persistence and
	// the portfolio book.
	if len(c.Redis.Host) > 0 {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		svc.Redis = rds
	}
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn

		repos, err := repo.New(repo.Dependencies{
			DBConn:         conn,
			Redis:          kvOrNil(svc.Redis),
			TTL:            svc.TTL,
			AssetsModel:    model.NewAssetsModel(conn),
			AppConfigModel: model.NewAppConfigModel(conn),
		})
		if err != nil {
			log.Fatalf("failed to build repositories: %v", err)
		}
		svc.Repos = repos

		signalSvc, err := signalpersist.NewService(signalpersist.Config{SQLConn: conn})
		if err != nil {
			log.Fatalf("failed to build signal persistence: %v", err)
		}
		svc.SignalService = signalSvc
	}

	if svc.NotifierConfig != nil {
		number := svc.NotifierConfig.DefaultNumber
		if svc.Repos != nil {
			if stored, err := svc.Repos.Settings.WhatsAppNumber(context.Background()); err == nil && stored != "" {
				number = stored
			}
		}
		notifier, err := notifypkg.NewWhatsAppNotifier(notifypkg.NewClient(svc.NotifierConfig), number)
		if err != nil {
			log.Printf("[svc] notifier not available: %v", err)
		} else {
			svc.Notifier = notifier
		}
	}

	if scanner, err := svc.buildScanner(); err == nil {
		svc.Scanner = scanner
	} else {
		log.Printf("[svc] scanner not available: %v", err)
	}
	return svc
}

func (s *ServiceContext) buildScanner() (*scanpkg.Scanner, error) {
	if s.DefaultMarket == nil {
		return nil, errors.New("no default market provider configured")
	}
	if s.SignalService == nil {
		return nil, errors.New("postgres not configured")
	}
	if s.Notifier == nil {
		return nil, errors.New("notifier not configured")
	}

	opts := []scanpkg.Option{}
	if dir := s.ScannerConfig.JournalDir; dir != "" {
		opts = append(opts, scanpkg.WithJournal(journal.NewWriter(dir)))
	}
	return scanpkg.New(*s.ScannerConfig, s.DefaultMarket, s.SignalService, s.SignalService, s.Notifier, opts...)
}

// kvOrNil keeps the repo dependency nil-safe: a nil *redis.Redis wrapped in
// the KV interface would not compare equal to nil.
func kvOrNil(rds *redis.Redis) repo.KV {
	if rds == nil {
		return nil
	}
	return rds
}
