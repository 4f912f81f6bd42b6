package failure

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

type Repository interface {
	Save(ctx context.Context, f *Failure) error
	List(ctx context.Context) ([]Failure, error)
	Get(ctx context.Context, id string) (*Failure, error)
	Delete(ctx context.Context, id string) error
	MarkRetried(ctx context.Context, id, errMsg string) error
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectColumns = `id, item_id, content_type, item_key, kind, payload, error, retries, created_at, updated_at`

func (r *PostgresRepo) Save(ctx context.Context, f *Failure) error {
	payload := f.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	key := f.Key
	if key == nil {
		key = []string{}
	}
	query := `INSERT INTO failed_items (item_id, content_type, item_key, kind, payload, error) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, retries, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, f.ItemID, f.ContentType, pq.Array(key), f.Kind, []byte(payload), f.Error).
		Scan(&f.ID, &f.Retries, &f.CreatedAt, &f.UpdatedAt)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Failure, error) {
	query := `SELECT ` + selectColumns + ` FROM failed_items ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Failure, error) {
	query := `SELECT ` + selectColumns + ` FROM failed_items WHERE id = $1`
	return scanFailure(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM failed_items WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// MarkRetried bumps the retry counter and stores the latest error.
func (r *PostgresRepo) MarkRetried(ctx context.Context, id, errMsg string) error {
	query := `UPDATE failed_items SET retries = retries + 1, error = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, errMsg)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM failed_items`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFailure(row scanner) (*Failure, error) {
	var f Failure
	var payload []byte
	var key pq.StringArray
	if err := row.Scan(&f.ID, &f.ItemID, &f.ContentType, &key, &f.Kind, &payload, &f.Error, &f.Retries, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Key = []string(key)
	f.Payload = json.RawMessage(payload)
	return &f, nil
}
