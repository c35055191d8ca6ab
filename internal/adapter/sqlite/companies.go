package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Compile-time check: CompanyRepository implements domain.CompanyRepository.
var _ domain.CompanyRepository = (*CompanyRepository)(nil)

// CompanyRepository implements domain.CompanyRepository using SQLite.
type CompanyRepository struct {
	store *Store
}

const companyColumns = `id, profile, state, web_validated, logo_assigned, has_conflict,
	required_fields_present, visible, visit_date, source_request_id, version, created_at, updated_at`

func (r *CompanyRepository) Create(ctx context.Context, c domain.Company) error {
	profile, err := encodeProfile(c.Profile)
	if err != nil {
		return err
	}

	return r.store.write(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO companies (`+companyColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, profile, string(c.State),
			c.Flags.WebValidated, c.Flags.LogoAssigned, c.Flags.HasConflict, c.Flags.RequiredFieldsPresent,
			c.Visible, formatNullTime(c.VisitDate), nullString(c.SourceRequestID), c.Version,
			formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConcurrentUpdate
			}
			return &domain.PersistenceError{Op: "inserting company", Err: err}
		}
		return appendTransitions(ctx, q, c.ID, c.TransitionLog)
	})
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (domain.Company, error) {
	q := r.store.conn(ctx)

	c, err := scanCompany(q.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id,
	))
	if err != nil {
		return domain.Company{}, err
	}

	c.TransitionLog, err = loadTransitions(ctx, q, id)
	if err != nil {
		return domain.Company{}, err
	}
	return c, nil
}

// List returns companies without their transition logs.
func (r *CompanyRepository) List(ctx context.Context, filter domain.CompanyFilter) ([]domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1 = 1`
	var args []any

	if filter.State != nil {
		query += ` AND state = ?`
		args = append(args, string(*filter.State))
	}

	if filter.Visible != nil {
		query += ` AND visible = ?`
		args = append(args, *filter.Visible)
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
		return nil, &domain.PersistenceError{Op: "listing companies", Err: err}
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}

	return companies, rows.Err()
}

func (r *CompanyRepository) Update(ctx context.Context, c domain.Company) error {
	profile, err := encodeProfile(c.Profile)
	if err != nil {
		return err
	}

	return r.store.write(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx,
			`UPDATE companies SET profile = ?, state = ?, web_validated = ?, logo_assigned = ?,
			     has_conflict = ?, required_fields_present = ?, visible = ?, visit_date = ?,
			     version = version + 1, updated_at = ?
			 WHERE id = ? AND version = ?`,
			profile, string(c.State),
			c.Flags.WebValidated, c.Flags.LogoAssigned, c.Flags.HasConflict, c.Flags.RequiredFieldsPresent,
			c.Visible, formatNullTime(c.VisitDate), formatTime(c.UpdatedAt),
			c.ID, c.Version,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "updating company", Err: err}
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return &domain.PersistenceError{Op: "checking rows affected", Err: err}
		}
		if rows == 0 {
			return casMiss(ctx, q, "companies", "id", c.ID, domain.ErrCompanyNotFound)
		}

		return appendTransitions(ctx, q, c.ID, c.TransitionLog)
	})
}

// appendTransitions inserts log entries not stored yet. Stored entries are
// never rewritten.
func appendTransitions(ctx context.Context, q querier, companyID string, log []domain.TransitionLogEntry) error {
	for _, e := range log {
		_, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO company_transitions (company_id, seq, at, from_state, to_state, reason, actor)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			companyID, e.Seq, formatTime(e.At), string(e.From), string(e.To), e.Reason, e.Actor,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "appending company transition", Err: err}
		}
	}
	return nil
}

func loadTransitions(ctx context.Context, q querier, companyID string) ([]domain.TransitionLogEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, at, from_state, to_state, reason, actor
		 FROM company_transitions WHERE company_id = ? ORDER BY seq`, companyID,
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "loading company transitions", Err: err}
	}
	defer rows.Close()

	var log []domain.TransitionLogEntry
	for rows.Next() {
		var e domain.TransitionLogEntry
		var at, from, to string
		if err := rows.Scan(&e.Seq, &at, &from, &to, &e.Reason, &e.Actor); err != nil {
			return nil, &domain.PersistenceError{Op: "scanning company transition", Err: err}
		}
		var times timeDecoder
		e.At = times.parse(at)
		if times.err != nil {
			return nil, times.err
		}
		e.From = domain.State(from)
		e.To = domain.State(to)
		log = append(log, e)
	}
	return log, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (domain.Company, error) {
	var c domain.Company
	var profile, state, createdAt, updatedAt string
	var visitDate, sourceRequestID sql.NullString

	err := row.Scan(&c.ID, &profile, &state,
		&c.Flags.WebValidated, &c.Flags.LogoAssigned, &c.Flags.HasConflict, &c.Flags.RequiredFieldsPresent,
		&c.Visible, &visitDate, &sourceRequestID, &c.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Company{}, domain.ErrCompanyNotFound
		}
		return domain.Company{}, &domain.PersistenceError{Op: "scanning company", Err: err}
	}

	c.Profile, err = decodeProfile(profile)
	if err != nil {
		return domain.Company{}, fmt.Errorf("company %s: %w", c.ID, err)
	}
	c.State = domain.State(state)
	var times timeDecoder
	c.VisitDate = times.parseNull(visitDate)
	c.SourceRequestID = sourceRequestID.String
	c.CreatedAt = times.parse(createdAt)
	c.UpdatedAt = times.parse(updatedAt)
	if times.err != nil {
		return domain.Company{}, fmt.Errorf("company %s: %w", c.ID, times.err)
	}

	return c, nil
}
