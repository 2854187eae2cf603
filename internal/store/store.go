// Package store persists extracted statements.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("statement not found")

// Store saves and reads back statement records.
type Store interface {
	// Save inserts rec. An empty ID is assigned before insertion.
	Save(ctx context.Context, rec *models.StatementRecord) error
	Get(ctx context.Context, id uuid.UUID) (*models.StatementRecord, error)
	// List returns records newest first together with the total count.
	List(ctx context.Context, offset, limit int) ([]models.StatementRecord, int, error)
	Close() error
}

// Open returns the store selected by cfg.Driver. Postgres stores are
// migrated before they are returned.
func Open(ctx context.Context, cfg config.DBConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
