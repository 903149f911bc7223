package cmd

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/notification"
	notificationPostgres "github.com/yusufwdn/reimverse/internal/notification/postgres"
	"github.com/yusufwdn/reimverse/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const dbDriver = "pgx"

// Dependencies are shared by every command that talks to the database. The
// GORM handle wraps the same connection pool as the sqlx one.
type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Logger *slog.Logger
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(config.Logging.Level, config.Logging.Format)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		Logger: logger.LoggerWrapper(),
	}, nil
}

func (d *Dependencies) Close() {
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect(dbDriver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}

func newMailer(cfg internal.MailConfig, lg *slog.Logger) notification.Mailer {
	if cfg.Driver == "smtp" {
		return notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		})
	}
	return notification.NewLogMailer(lg)
}

// newNotificationPool starts the workers that store and mail notifications.
func newNotificationPool(deps *Dependencies) *notification.Pool {
	deliverer := notification.NewDeliverer(
		notificationPostgres.NewNotificationRepository(deps.Gorm),
		newMailer(deps.Config.Mail, deps.Logger),
		deps.Logger)

	return notification.NewPool(notification.PoolConfig{
		MaxWorkers:   deps.Config.Queue.Workers,
		JobQueueSize: deps.Config.Queue.JobQueueSize,
	}, deliverer.Deliver, deps.Logger)
}
