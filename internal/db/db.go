package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookshelf/internal/model"
)

// sqliteDriverName is go-sqlite3 with a Unicode-aware lower() installed on every connection.
const sqliteDriverName = "sqlite3_bookshelf"

var registerSQLite sync.Once

// Open returns a connected GORM DB instance for the given driver. SQL logging goes
// through log; missing rows are expected outcomes and are never logged as errors.
// Constraint violations are translated to gorm.ErrDuplicatedKey and friends.
func Open(driver, dsn string, verbose bool, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqliteDialector(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logLevel := logger.Warn
	if verbose {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.NewSlogLogger(log, logger.Config{
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      !verbose,
			LogLevel:                  logLevel,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// SQLite serialises writers anyway; one connection also keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func sqliteDialector(dsn string) gorm.Dialector {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				// The built-in lower() only folds ASCII, which breaks case-insensitive search on "Été".
				return conn.RegisterFunc("lower", strings.ToLower, true)
			},
		})
	})
	return sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: sqliteDSN(dsn)})
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off by default.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Migrate provisions the users and books tables. With reset set, existing tables are dropped first.
func Migrate(db *gorm.DB, reset bool, log *slog.Logger) error {
	if reset {
		log.Warn("RESET_DB=true detected, dropping all tables")
		// books first: it references users.
		for _, table := range []interface{}{&model.Book{}, &model.User{}} {
			if err := db.Migrator().DropTable(table); err != nil {
				log.Warn("failed to drop table (may not exist)", slog.Any("error", err))
			}
		}
	}

	if err := db.AutoMigrate(&model.User{}, &model.Book{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
