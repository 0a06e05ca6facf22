package postgres

import (
	"context"
	"database/sql"
	"time"

	"bovine-monitoring/internal/domain/domainerr"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound es el mismo sentinel que entienden los servicios.
var ErrNotFound = domainerr.ErrNotFound

// Open abre un pool a Postgres usando pgx (database/sql).
// Con Supabase se usa la cadena de conexión directa del proyecto.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Ping sirve como health check del backend.
func Ping(db *sql.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
