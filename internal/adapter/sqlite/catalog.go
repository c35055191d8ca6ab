package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Compile-time check: CatalogRepository implements domain.CatalogRepository.
var _ domain.CatalogRepository = (*CatalogRepository)(nil)

// CatalogRepository stores offers and plans. Saves are upserts.
type CatalogRepository struct {
	store *Store
}

func (r *CatalogRepository) SaveOffer(ctx context.Context, o domain.Offer) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO offers (id, title, description, points_required, valid_from, valid_to)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     title = excluded.title,
		     description = excluded.description,
		     points_required = excluded.points_required,
		     valid_from = excluded.valid_from,
		     valid_to = excluded.valid_to`,
		o.ID, o.Title, o.Description, o.PointsRequired, boundTime(o.ValidFrom), boundTime(o.ValidTo),
	)
	if err != nil {
		return &domain.PersistenceError{Op: "saving offer", Err: err}
	}
	return nil
}

func (r *CatalogRepository) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	return scanOffer(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT id, title, description, points_required, valid_from, valid_to FROM offers WHERE id = ?`, id,
	))
}

func (r *CatalogRepository) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx,
		`SELECT id, title, description, points_required, valid_from, valid_to FROM offers ORDER BY id`,
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listing offers", Err: err}
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (r *CatalogRepository) SavePlan(ctx context.Context, p domain.Plan) error {
	limitations := p.Limitations
	if limitations == nil {
		limitations = map[string]bool{}
	}
	b, err := json.Marshal(limitations)
	if err != nil {
		return fmt.Errorf("encoding plan limitations: %w", err)
	}

	_, err = r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO plans (id, name, limitations) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, limitations = excluded.limitations`,
		p.ID, p.Name, string(b),
	)
	if err != nil {
		return &domain.PersistenceError{Op: "saving plan", Err: err}
	}
	return nil
}

func (r *CatalogRepository) GetPlan(ctx context.Context, id string) (domain.Plan, error) {
	return scanPlan(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT id, name, limitations FROM plans WHERE id = ?`, id,
	))
}

func (r *CatalogRepository) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, `SELECT id, name, limitations FROM plans ORDER BY id`)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listing plans", Err: err}
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// boundTime stores an open validity bound as NULL.
func boundTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return formatNullTime(&t)
}

func scanOffer(row rowScanner) (domain.Offer, error) {
	var o domain.Offer
	var from, to sql.NullString

	if err := row.Scan(&o.ID, &o.Title, &o.Description, &o.PointsRequired, &from, &to); err != nil {
		if err == sql.ErrNoRows {
			return domain.Offer{}, domain.ErrOfferNotFound
		}
		return domain.Offer{}, &domain.PersistenceError{Op: "scanning offer", Err: err}
	}

	var times timeDecoder
	if t := times.parseNull(from); t != nil {
		o.ValidFrom = *t
	}
	if t := times.parseNull(to); t != nil {
		o.ValidTo = *t
	}
	if times.err != nil {
		return domain.Offer{}, fmt.Errorf("offer %s: %w", o.ID, times.err)
	}
	return o, nil
}

func scanPlan(row rowScanner) (domain.Plan, error) {
	var p domain.Plan
	var limitations string

	if err := row.Scan(&p.ID, &p.Name, &limitations); err != nil {
		if err == sql.ErrNoRows {
			return domain.Plan{}, domain.ErrPlanNotFound
		}
		return domain.Plan{}, &domain.PersistenceError{Op: "scanning plan", Err: err}
	}

	if err := json.Unmarshal([]byte(limitations), &p.Limitations); err != nil {
		return domain.Plan{}, &domain.PersistenceError{Op: "decoding plan limitations", Err: err}
	}
	return p, nil
}
