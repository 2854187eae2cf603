package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS bank_statements (
	id               UUID PRIMARY KEY,
	filename         VARCHAR(255) NOT NULL,
	extracted_data   TEXT NOT NULL,
	account_number   VARCHAR(100),
	account_holder   VARCHAR(255),
	bank_name        VARCHAR(255),
	statement_period VARCHAR(255),
	total_credits    NUMERIC(18, 2) NOT NULL DEFAULT 0,
	total_debits     NUMERIC(18, 2) NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_bank_statements_created_at ON bank_statements (created_at DESC);
`

// PostgresStore keeps records in the bank_statements table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects using cfg.
func NewPostgresStore(ctx context.Context, cfg config.DBConfig) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	logging.L().Info("connected to postgres",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name))
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection pool.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the table and its index when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate bank_statements: %w", err)
	}
	return nil
}

// statementRow mirrors the table. extracted_data is scanned as bytes
// whatever text type the driver reports.
type statementRow struct {
	ID              uuid.UUID       `db:"id"`
	Filename        string          `db:"filename"`
	ExtractedData   []byte          `db:"extracted_data"`
	AccountNumber   *string         `db:"account_number"`
	AccountHolder   *string         `db:"account_holder"`
	BankName        *string         `db:"bank_name"`
	StatementPeriod *string         `db:"statement_period"`
	TotalCredits    decimal.Decimal `db:"total_credits"`
	TotalDebits     decimal.Decimal `db:"total_debits"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r statementRow) record() models.StatementRecord {
	return models.StatementRecord{
		ID:              r.ID,
		Filename:        r.Filename,
		ExtractedData:   r.ExtractedData,
		AccountNumber:   r.AccountNumber,
		AccountHolder:   r.AccountHolder,
		BankName:        r.BankName,
		StatementPeriod: r.StatementPeriod,
		TotalCredits:    r.TotalCredits,
		TotalDebits:     r.TotalDebits,
		CreatedAt:       r.CreatedAt,
	}
}

func (s *PostgresStore) Save(ctx context.Context, rec *models.StatementRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO bank_statements (id, filename, extracted_data, account_number,
		account_holder, bank_name, statement_period, total_credits, total_debits, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Filename, string(rec.ExtractedData), rec.AccountNumber,
		rec.AccountHolder, rec.BankName, rec.StatementPeriod,
		rec.TotalCredits, rec.TotalDebits, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("store.Save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.StatementRecord, error) {
	var row statementRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM bank_statements WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store.Get: %w", err)
	}
	rec := row.record()
	return &rec, nil
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]models.StatementRecord, int, error) {
	offset, limit = clampPage(offset, limit)

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bank_statements"); err != nil {
		return nil, 0, fmt.Errorf("store.List count: %w", err)
	}

	var rows []statementRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM bank_statements ORDER BY created_at DESC, id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store.List: %w", err)
	}

	out := make([]models.StatementRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, total, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
