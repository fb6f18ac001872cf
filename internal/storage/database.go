package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Uric01/machine-learning/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database for the given driver type.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		params := dbCfg.Params
		// DATETIME columns are scanned into time.Time throughout.
		if !strings.Contains(params, "parseTime") {
			if params != "" {
				params += "&"
			}
			params += "parseTime=true"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS datasets (
				digest TEXT PRIMARY KEY,
				file_name TEXT NOT NULL,
				row_count INTEGER NOT NULL,
				customers INTEGER NOT NULL,
				cutoff DATETIME NOT NULL,
				uploaded_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS model_runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				dataset_digest TEXT NOT NULL,
				penalizer_coef REAL NOT NULL,
				params TEXT NOT NULL,
				source TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(dataset_digest) REFERENCES datasets(digest) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_model_runs_dataset ON model_runs(dataset_digest)`,
			`CREATE INDEX IF NOT EXISTS idx_model_runs_created_at ON model_runs(created_at DESC)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS datasets (
				digest VARCHAR(64) NOT NULL PRIMARY KEY,
				file_name VARCHAR(255) NOT NULL,
				row_count INT NOT NULL,
				customers INT NOT NULL,
				cutoff DATETIME NOT NULL,
				uploaded_at DATETIME NOT NULL
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS model_runs (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				dataset_digest VARCHAR(64) NOT NULL,
				penalizer_coef DOUBLE NOT NULL,
				params MEDIUMTEXT NOT NULL,
				source VARCHAR(20) NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_model_runs_dataset (dataset_digest),
				INDEX idx_model_runs_created_at (created_at),
				CONSTRAINT fk_model_runs_dataset FOREIGN KEY (dataset_digest) REFERENCES datasets(digest) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
