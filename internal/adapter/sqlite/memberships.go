package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Compile-time check: MembershipRepository implements domain.MembershipRepository.
var _ domain.MembershipRepository = (*MembershipRepository)(nil)

// MembershipRepository implements domain.MembershipRepository using SQLite.
// The balance row, its activity entries and its redemptions are written in
// one transaction.
type MembershipRepository struct {
	store *Store
}

func (r *MembershipRepository) Create(ctx context.Context, m domain.Membership) error {
	return r.store.write(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO memberships (client_id, points_balance, tier, plan_id, services_count,
			     cumulative_savings, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ClientID, m.PointsBalance, string(domain.TierFor(m.PointsBalance)), m.PlanID,
			m.ServicesCount, m.CumulativeSavings, m.Version,
			formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConcurrentUpdate
			}
			return &domain.PersistenceError{Op: "inserting membership", Err: err}
		}
		return appendLedger(ctx, q, m)
	})
}

func (r *MembershipRepository) GetByID(ctx context.Context, clientID string) (domain.Membership, error) {
	q := r.store.conn(ctx)

	var m domain.Membership
	var tier, createdAt, updatedAt string
	err := q.QueryRowContext(ctx,
		`SELECT client_id, points_balance, tier, plan_id, services_count, cumulative_savings,
		     version, created_at, updated_at
		 FROM memberships WHERE client_id = ?`, clientID,
	).Scan(&m.ClientID, &m.PointsBalance, &tier, &m.PlanID, &m.ServicesCount,
		&m.CumulativeSavings, &m.Version, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Membership{}, domain.ErrMembershipNotFound
		}
		return domain.Membership{}, &domain.PersistenceError{Op: "scanning membership", Err: err}
	}

	// The stored tier is informational; the balance is authoritative.
	m.Tier = domain.TierFor(m.PointsBalance)
	var times timeDecoder
	m.CreatedAt = times.parse(createdAt)
	m.UpdatedAt = times.parse(updatedAt)
	if times.err != nil {
		return domain.Membership{}, fmt.Errorf("membership %s: %w", clientID, times.err)
	}

	if m.ActivityLog, err = loadActivity(ctx, q, clientID); err != nil {
		return domain.Membership{}, err
	}
	if m.Redemptions, err = loadRedemptions(ctx, q, clientID); err != nil {
		return domain.Membership{}, err
	}
	return m, nil
}

func (r *MembershipRepository) Update(ctx context.Context, m domain.Membership) error {
	return r.store.write(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx,
			`UPDATE memberships SET points_balance = ?, tier = ?, plan_id = ?, services_count = ?,
			     cumulative_savings = ?, version = version + 1, updated_at = ?
			 WHERE client_id = ? AND version = ?`,
			m.PointsBalance, string(domain.TierFor(m.PointsBalance)), m.PlanID, m.ServicesCount,
			m.CumulativeSavings, formatTime(m.UpdatedAt),
			m.ClientID, m.Version,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "updating membership", Err: err}
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return &domain.PersistenceError{Op: "checking rows affected", Err: err}
		}
		if rows == 0 {
			return casMiss(ctx, q, "memberships", "client_id", m.ClientID, domain.ErrMembershipNotFound)
		}

		return appendLedger(ctx, q, m)
	})
}

// appendLedger inserts activity and redemption entries not stored yet.
func appendLedger(ctx context.Context, q querier, m domain.Membership) error {
	for _, e := range m.ActivityLog {
		_, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO membership_activity (client_id, seq, at, reason, delta, balance_after)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ClientID, e.Seq, formatTime(e.At), e.Reason, e.Delta, e.BalanceAfter,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "appending activity", Err: err}
		}
	}

	for _, rd := range m.Redemptions {
		_, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO membership_redemptions (client_id, seq, offer_id, at, points_spent)
			 VALUES (?, ?, ?, ?, ?)`,
			m.ClientID, rd.Seq, rd.OfferID, formatTime(rd.At), rd.PointsSpent,
		)
		if err != nil {
			return &domain.PersistenceError{Op: "appending redemption", Err: err}
		}
	}
	return nil
}

func loadActivity(ctx context.Context, q querier, clientID string) ([]domain.ActivityEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, at, reason, delta, balance_after
		 FROM membership_activity WHERE client_id = ? ORDER BY seq`, clientID,
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "loading activity", Err: err}
	}
	defer rows.Close()

	var out []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		var at string
		if err := rows.Scan(&e.Seq, &at, &e.Reason, &e.Delta, &e.BalanceAfter); err != nil {
			return nil, &domain.PersistenceError{Op: "scanning activity", Err: err}
		}
		var times timeDecoder
		e.At = times.parse(at)
		if times.err != nil {
			return nil, times.err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadRedemptions(ctx context.Context, q querier, clientID string) ([]domain.Redemption, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, offer_id, at, points_spent
		 FROM membership_redemptions WHERE client_id = ? ORDER BY seq`, clientID,
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "loading redemptions", Err: err}
	}
	defer rows.Close()

	var out []domain.Redemption
	for rows.Next() {
		var rd domain.Redemption
		var at string
		if err := rows.Scan(&rd.Seq, &rd.OfferID, &at, &rd.PointsSpent); err != nil {
			return nil, &domain.PersistenceError{Op: "scanning redemption", Err: err}
		}
		var times timeDecoder
		rd.At = times.parse(at)
		if times.err != nil {
			return nil, times.err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
