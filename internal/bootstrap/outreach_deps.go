package bootstrap

import (
	"os"

	"outreach_server/adapter/out/mailer"
	"outreach_server/adapter/out/mailer/graph"
	"outreach_server/adapter/out/mailer/smtp"
	"outreach_server/adapter/out/persistence"
	"outreach_server/config"
	"outreach_server/core/port/out"
	"outreach_server/core/service/outreachmail"
	"outreach_server/core/service/replysync"
	"outreach_server/core/service/templates"
	"outreach_server/infra/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	Config *config.Config
	Log    zerolog.Logger
	DB     *pgxpool.Pool
	SQLDB  *sqlx.DB
	Redis  *redis.Client

	// Repositories
	OutreachRepo out.OutreachRepository
	ProviderRepo out.ProviderRepository
	ContactRepo  out.ContactRepository

	// Mail backend
	Backend *mailer.Backend

	// Services
	Templates   *templates.Registry
	MailService *outreachmail.Service
	ReplySync   *replysync.Service
	SweepLock   out.SweepLock
}

// NewDependencies wires the whole dependency graph. ReplySync stays nil when
// the bound backend cannot read conversations back.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("service", "outreach").Logger()

	deps := &Dependencies{Config: cfg, Log: log}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Database
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		deps.DB = pool
		cleanups = append(cleanups, pool.Close)

		sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.SQLDB = sqlDB
		cleanups = append(cleanups, func() { sqlDB.Close() })

		deps.OutreachRepo = persistence.NewOutreachAdapter(sqlDB)
		deps.ProviderRepo = persistence.NewProviderAdapter(sqlDB)
		deps.ContactRepo = persistence.NewContactAdapter(sqlDB)
	}

	// Redis (optional): sweep lock falls back to in-process locking
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-process sweep lock")
		} else {
			deps.Redis = rdb
			cleanups = append(cleanups, func() { rdb.Close() })
		}
	}
	if deps.Redis != nil {
		deps.SweepLock = persistence.NewRedisSweepLock(deps.Redis, log)
	} else {
		deps.SweepLock = persistence.NewMemorySweepLock()
	}

	// Mail backend
	backend, err := mailer.Bind(
		&graph.Config{
			ClientID:     cfg.GraphClientID,
			ClientSecret: cfg.GraphClientSecret,
			TenantID:     cfg.GraphTenantID,
			UserEmail:    cfg.GraphUserEmail,
		},
		&smtp.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			TLSMode:  cfg.SMTPTLSMode,
		},
		log,
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Backend = backend

	// Templates
	reg, err := templates.Load(cfg.TemplatesPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Templates = reg

	// Services
	deps.MailService = outreachmail.NewService(
		deps.ProviderRepo,
		deps.ContactRepo,
		deps.OutreachRepo,
		backend.Sender,
		reg,
		log,
	)

	if backend.ReplySyncAvailable() && deps.OutreachRepo != nil {
		fetcher := replysync.NewReplyFetcher(backend.Conversations, log)
		preview := replysync.NewPreviewExtractor(backend.Conversations, log)
		deps.ReplySync = replysync.NewService(
			deps.OutreachRepo,
			fetcher,
			preview,
			deps.SweepLock,
			cfg.SweepWorkers,
			log,
		)
	} else {
		log.Warn().Msg("reply sync disabled: backend has no conversation source")
	}

	return deps, cleanup, nil
}
