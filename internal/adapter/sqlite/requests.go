package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Compile-time check: RequestRepository implements domain.RequestRepository.
var _ domain.RequestRepository = (*RequestRepository)(nil)

// RequestRepository implements domain.RequestRepository using SQLite.
type RequestRepository struct {
	store *Store
}

const requestColumns = `id, state, payload, source_collection, company_id, decided_by,
	decision_reason, decided_at, version, created_at, updated_at`

func (r *RequestRepository) Create(ctx context.Context, req domain.Request) error {
	payload, err := encodeProfile(req.Payload)
	if err != nil {
		return err
	}

	_, err = r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO requests (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, string(req.State), payload, req.SourceCollection, nullString(req.CompanyID),
		req.DecidedBy, req.DecisionReason, formatNullTime(req.DecidedAt), req.Version,
		formatTime(req.CreatedAt), formatTime(req.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConcurrentUpdate
		}
		return &domain.PersistenceError{Op: "inserting request", Err: err}
	}
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (domain.Request, error) {
	return scanRequest(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id,
	))
}

func (r *RequestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests`
	var args []any

	if filter.State != nil {
		query += ` WHERE state = ?`
		args = append(args, string(*filter.State))
	}

	query += ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.store.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listing requests", Err: err}
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func (r *RequestRepository) Update(ctx context.Context, req domain.Request) error {
	payload, err := encodeProfile(req.Payload)
	if err != nil {
		return err
	}

	return r.store.write(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx,
			`UPDATE requests SET state = ?, payload = ?, source_collection = ?, company_id = ?,
			     decided_by = ?, decision_reason = ?, decided_at = ?,
			     version = version + 1, updated_at = ?
			 WHERE id = ? AND version = ?`,
			string(req.State), payload, req.SourceCollection, nullString(req.CompanyID),
			req.DecidedBy, req.DecisionReason, formatNullTime(req.DecidedAt), formatTime(req.UpdatedAt),
			req.ID, req.Version,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "updating request", Err: err}
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return &domain.PersistenceError{Op: "checking rows affected", Err: err}
		}
		if rows == 0 {
			return casMiss(ctx, q, "requests", "id", req.ID, domain.ErrRequestNotFound)
		}
		return nil
	})
}

func scanRequest(row rowScanner) (domain.Request, error) {
	var req domain.Request
	var state, payload, createdAt, updatedAt string
	var companyID, decidedAt sql.NullString

	err := row.Scan(&req.ID, &state, &payload, &req.SourceCollection, &companyID,
		&req.DecidedBy, &req.DecisionReason, &decidedAt, &req.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Request{}, domain.ErrRequestNotFound
		}
		return domain.Request{}, &domain.PersistenceError{Op: "scanning request", Err: err}
	}

	req.Payload, err = decodeProfile(payload)
	if err != nil {
		return domain.Request{}, fmt.Errorf("request %s: %w", req.ID, err)
	}
	req.State = domain.State(state)
	req.CompanyID = companyID.String
	var times timeDecoder
	req.DecidedAt = times.parseNull(decidedAt)
	req.CreatedAt = times.parse(createdAt)
	req.UpdatedAt = times.parse(updatedAt)
	if times.err != nil {
		return domain.Request{}, fmt.Errorf("request %s: %w", req.ID, times.err)
	}

	return req, nil
}
