// pkg/db/repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/smith3v/meowfacts/pkg/config"
	"github.com/smith3v/meowfacts/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Export DB variable
var DB *gorm.DB

const pingTimeout = 8 * time.Second

func InitDB(cfg config.DatabaseConfig) error {
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Warn("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}

	var err error
	switch cfg.Driver {
	case "sqlite":
		DB, err = gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{Logger: gormLogger, TranslateError: true})
	case "", "postgres":
		var sqlDB *sql.DB
		sqlDB, err = openPostgresPool(cfg)
		if err == nil {
			DB, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gormLogger, TranslateError: true})
		}
	default:
		err = fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	return Migrate(DB)
}

// Migrate brings the schema up to date, including the one-off moves from
// the legacy facts table.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	if err := migrateLegacyFacts(gdb); err != nil {
		logger.Error("failed to migrate legacy facts", "error", err)
		return err
	}
	return nil
}

func postgresDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return "host=" + cfg.Host +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.DBName +
		" port=" + strconv.Itoa(cfg.Port) +
		" sslmode=" + cfg.SSLMode
}

// openPostgresPool builds a bounded pgx-backed pool so every request shares
// at most MaxOpenConns connections.
func openPostgresPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	pgCfg, err := pgx.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pgCfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
		return d.DialContext(ctx, network, addr)
	}

	sqlDB := stdlib.OpenDB(*pgCfg)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return sqlDB, nil
}

// migrateLegacyFacts copies rows from the original facts(id, text) table
// into admin_facts and drops it. It only runs while admin_facts is empty.
func migrateLegacyFacts(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	migrator := db.Migrator()
	if !migrator.HasTable("facts") {
		return nil
	}
	if !migrator.HasColumn("facts", "text") {
		return nil
	}

	var count int64
	if err := db.Model(&Fact{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Exec(`
INSERT INTO admin_facts (id, text, created_at, updated_at)
SELECT id, text, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP FROM facts
`).Error; err != nil {
			return err
		}
		if db.Dialector.Name() == "postgres" {
			if err := db.Exec(`
SELECT setval(pg_get_serial_sequence('admin_facts', 'id'), COALESCE((SELECT MAX(id) FROM admin_facts), 1))
`).Error; err != nil {
				return err
			}
		}
	}
	return migrator.DropTable("facts")
}
