package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLiteDriverName is the database/sql driver used for sqlite. Its connections
// carry a casefold() SQL function, because sqlite's LOWER only folds ASCII.
const SQLiteDriverName = "sqlite3_casefold"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", strings.ToLower, true)
		},
	})
}

// SQLite returns a dialector for dsn on SQLiteDriverName.
func SQLite(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: SQLiteDriverName, DSN: dsn})
}

// Connect opens the store selected by DATABASE_DRIVER. The handle is returned
// rather than kept in a package variable; callers pass it to repositories.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = SQLite(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}

	db, err := Open(dialector, level)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Database connected successfully",
		zap.String("driver", cfg.DatabaseDriver),
	)
	return db, nil
}

// Open applies the shared gorm settings to any dialector. TranslateError makes
// unique violations surface as gorm.ErrDuplicatedKey on every driver.
func Open(dialector gorm.Dialector, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table. Order matters: referenced tables first.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Log.Info("Database migration completed")
	return nil
}
