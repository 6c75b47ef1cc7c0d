package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. The structured payload is stored
// as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Save inserts a new report row.
func (r *PGRepo) Save(ctx context.Context, report Report) (string, error) {
	const query = `
INSERT INTO reports (id, user_id, filename, extracted_data, created_at)
VALUES ($1, $2, $3, $4, $5)`

	payload, err := json.Marshal(report.Data)
	if err != nil {
		return "", fmt.Errorf("marshal report payload: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, query,
		report.ID,
		report.UserID,
		report.Filename,
		payload,
		report.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	return report.ID, nil
}

// Get fetches a report by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (Report, error) {
	const query = `
SELECT id, user_id, filename, extracted_data, created_at
FROM reports
WHERE id = $1
LIMIT 1`

	var report Report
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&report.ID,
		&report.UserID,
		&report.Filename,
		&payload,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	if err := json.Unmarshal(payload, &report.Data); err != nil {
		return Report{}, fmt.Errorf("unmarshal report payload: %w", err)
	}
	return report, nil
}

// ListByOwner returns all reports for a user, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Report, error) {
	const query = `
SELECT id, user_id, filename, extracted_data, created_at
FROM reports
WHERE user_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var report Report
		var payload []byte
		if err := rows.Scan(&report.ID, &report.UserID, &report.Filename, &payload, &report.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &report.Data); err != nil {
			return nil, fmt.Errorf("unmarshal report payload: %w", err)
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

// Delete removes a report row, reporting whether it existed.
func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM reports WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
