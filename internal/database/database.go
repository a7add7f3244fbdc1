package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/rs/zerolog/log"
)

var db *sql.DB

// InitDB opens the connection pool and verifies it with a ping. When
// schemaPath is non-empty the schema script is executed, which keeps fresh
// deployments and integration environments one env var away from a working
// database.
func InitDB(host, port, user, password, dbname, sslmode, schemaPath string) error {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	log.Info().Str("host", host).Str("database", dbname).Msg("Connected to database")

	if schemaPath != "" {
		if err := applySchema(db, schemaPath); err != nil {
			return err
		}
	}
	return nil
}

// applySchema reads and executes the schema script.
func applySchema(db *sql.DB, schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}
	if _, err = db.Exec(string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	log.Info().Str("path", schemaPath).Msg("Database schema applied")
	return nil
}

// GetDB returns the database connection pool.
func GetDB() *sql.DB {
	return db
}
