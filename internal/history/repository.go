// Package history records every rendered annotation per analysis session.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/park285/cheese-overlay/internal/domain"
)

var ErrDuplicateAnnotation = errors.New("annotation already recorded")

//go:embed schema.sql
var schemaSQL string

type Repository interface {
	InsertAnnotation(ctx context.Context, a *domain.Annotation) (int64, error)
	ListSession(ctx context.Context, sessionUUID string, labels []domain.MoveQuality, limit int) ([]*domain.Annotation, error)
	CountLabels(ctx context.Context, sessionUUID string) ([]domain.LabelCount, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// OpenPostgres opens and pings a pooled connection.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the annotations table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate annotations: %w", err)
	}
	return nil
}

func (r *repository) InsertAnnotation(ctx context.Context, a *domain.Annotation) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("nil annotation payload")
	}
	const query = `
		INSERT INTO overlay_annotations (
			session_uuid,
			ply,
			label,
			best_move,
			opponent_move,
			eval_cp,
			depth,
			rendered_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_uuid, ply) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err := r.db.QueryRowContext(ctx, query,
		a.SessionUUID,
		a.Ply,
		string(a.Label),
		a.BestMove,
		a.OpponentMove,
		nullInt(a.EvalCP),
		nullInt(a.Depth),
		a.RenderedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateAnnotation
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return 0, fmt.Errorf("insert annotation (%s): %w", pqErr.Code.Name(), err)
		}
		return 0, fmt.Errorf("insert annotation: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) ListSession(ctx context.Context, sessionUUID string, labels []domain.MoveQuality, limit int) ([]*domain.Annotation, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT
			id,
			session_uuid,
			ply,
			label,
			best_move,
			opponent_move,
			eval_cp,
			depth,
			rendered_at
		FROM overlay_annotations
		WHERE session_uuid = $1
		  AND (cardinality($2::text[]) = 0 OR label = ANY($2::text[]))
		ORDER BY ply ASC
		LIMIT $3`

	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, string(l))
	}
	rows, err := r.db.QueryContext(ctx, query, sessionUUID, pq.Array(names), limit)
	if err != nil {
		return nil, fmt.Errorf("select annotations: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Annotation, 0, limit)
	for rows.Next() {
		var (
			a     domain.Annotation
			label string
			eval  sql.NullInt64
			depth sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.SessionUUID, &a.Ply, &label, &a.BestMove, &a.OpponentMove, &eval, &depth, &a.RenderedAt); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.Label = domain.MoveQuality(label)
		a.EvalCP = intPtr(eval)
		a.Depth = intPtr(depth)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *repository) CountLabels(ctx context.Context, sessionUUID string) ([]domain.LabelCount, error) {
	const query = `
		SELECT label, COUNT(*)
		FROM overlay_annotations
		WHERE session_uuid = $1
		GROUP BY label
		ORDER BY COUNT(*) DESC, label ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionUUID)
	if err != nil {
		return nil, fmt.Errorf("count labels: %w", err)
	}
	defer rows.Close()

	var out []domain.LabelCount
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		out = append(out, domain.LabelCount{Label: domain.MoveQuality(label), Count: n})
	}
	return out, rows.Err()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
