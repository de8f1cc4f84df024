package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repo struct {
	pool *pgxpool.Pool
}

// New creates a new activity log repository.
func New(pool *pgxpool.Pool) Repository {
	return &repo{pool: pool}
}

func (r *repo) Create(ctx context.Context, entry Entry) (Entry, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO activity_logs (type, description, company_id, user_id, lead_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING id, timestamp
	`, entry.Type, entry.Description, entry.TenantID, entry.UserID, entry.LeadID, nullableTime(entry)).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to insert activity log: %w", err)
	}
	return entry, nil
}

func nullableTime(entry Entry) any {
	if entry.Timestamp.IsZero() {
		return nil
	}
	return entry.Timestamp
}

func (r *repo) List(ctx context.Context, params ListParams) ([]Entry, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{params.TenantID}

	if params.Type != "" {
		args = append(args, params.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.LeadID != nil {
		args = append(args, *params.LeadID)
		conditions = append(conditions, fmt.Sprintf("lead_id = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		conditions = append(conditions, fmt.Sprintf("timestamp < $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM activity_logs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activity logs: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT id, timestamp, type, description, company_id, user_id, lead_id
		FROM activity_logs
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity logs: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.Timestamp, &e.Type, &e.Description, &e.TenantID, &e.UserID, &e.LeadID)
		return e, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan activity logs: %w", err)
	}
	return entries, total, nil
}
