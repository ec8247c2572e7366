package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

const schemaLockID int64 = 2026101901

type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *BatchRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	text_column TEXT NOT NULL,
	status TEXT NOT NULL,
	total_rows INTEGER NOT NULL DEFAULT 0,
	completed_rows INTEGER NOT NULL DEFAULT 0,
	failed_rows INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at DESC);

CREATE TABLE IF NOT EXISTS batch_results (
	batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	row_data JSONB NOT NULL,
	sentiment TEXT NOT NULL,
	confidence TEXT NOT NULL,
	PRIMARY KEY (batch_id, position)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *BatchRepository) Create(ctx context.Context, batch *domain.Batch) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO batches (
	id, filename, storage_path, text_column, status, total_rows, completed_rows, failed_rows, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		batch.ID, batch.Filename, batch.StoragePath, batch.TextColumn, string(batch.Status),
		batch.TotalRows, batch.Completed, batch.FailedRows, batch.Error, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, storage_path, text_column, status, total_rows, completed_rows, failed_rows, error_message, created_at, updated_at
FROM batches
WHERE id = $1
`, id)

	var batch domain.Batch
	var status string
	err := row.Scan(
		&batch.ID, &batch.Filename, &batch.StoragePath, &batch.TextColumn, &status,
		&batch.TotalRows, &batch.Completed, &batch.FailedRows, &batch.Error, &batch.CreatedAt, &batch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBatchNotFound, "get batch", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	batch.Status = domain.BatchStatus(status)
	return &batch, nil
}

func (r *BatchRepository) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE batches
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	return requireAffected(res, "update batch status", id)
}

// StartRun discards results of an interrupted earlier run and resets the counters.
func (r *BatchRepository) StartRun(ctx context.Context, id string, totalRows int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin start run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM batch_results WHERE batch_id = $1`, id); err != nil {
		return fmt.Errorf("delete previous results: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
UPDATE batches
SET total_rows = $2, completed_rows = 0, failed_rows = 0, updated_at = $3
WHERE id = $1
`, id, totalRows, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset batch counters: %w", err)
	}
	if err := requireAffected(res, "start run", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit start run tx: %w", err)
	}
	return nil
}

// AppendResult stores one classified row and advances the progress counters atomically.
func (r *BatchRepository) AppendResult(ctx context.Context, id string, position int, result domain.ClassificationResult) error {
	rowJSON, err := json.Marshal(stripNULRow(result.Row))
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	failed := 0
	if result.Failed() {
		failed = 1
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO batch_results (batch_id, position, row_data, sentiment, confidence)
VALUES ($1,$2,$3,$4,$5)
`, id, position, rowJSON, stripNUL(result.Sentiment), stripNUL(result.Confidence)); err != nil {
		return fmt.Errorf("insert batch result: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
UPDATE batches
SET completed_rows = completed_rows + 1, failed_rows = failed_rows + $2, updated_at = $3
WHERE id = $1
`, id, failed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("advance batch progress: %w", err)
	}
	if err := requireAffected(res, "append result", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

// ListResults returns results in row order. limit <= 0 returns all of them.
func (r *BatchRepository) ListResults(ctx context.Context, id string, limit int) ([]domain.ClassificationResult, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT row_data, sentiment, confidence
FROM batch_results
WHERE batch_id = $1
ORDER BY position
LIMIT $2
`, id, limitArg)
	if err != nil {
		return nil, fmt.Errorf("query batch results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ClassificationResult, 0)
	for rows.Next() {
		var rowJSON []byte
		var result domain.ClassificationResult
		if err := rows.Scan(&rowJSON, &result.Sentiment, &result.Confidence); err != nil {
			return nil, fmt.Errorf("scan batch result: %w", err)
		}
		if err := json.Unmarshal(rowJSON, &result.Row); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch results: %w", err)
	}
	return out, nil
}

// Postgres text and jsonb reject U+0000, which encoding/csv passes through
// from uploaded cells.
func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func stripNULRow(row domain.Row) domain.Row {
	out := domain.Row{
		Columns: make([]string, len(row.Columns)),
		Values:  make(map[string]string, len(row.Values)),
	}
	for i, column := range row.Columns {
		out.Columns[i] = stripNUL(column)
	}
	for column, value := range row.Values {
		out.Values[stripNUL(column)] = stripNUL(value)
	}
	return out
}

func requireAffected(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrBatchNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
