package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/partnerflow/internal/catalog"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

type recordingSaver struct {
	offers []domain.Offer
	plans  []domain.Plan
	err    error
}

func (s *recordingSaver) SaveOffer(_ context.Context, o domain.Offer) (domain.Offer, error) {
	if s.err != nil {
		return domain.Offer{}, s.err
	}
	s.offers = append(s.offers, o)
	return o, nil
}

func (s *recordingSaver) SavePlan(_ context.Context, p domain.Plan) (domain.Plan, error) {
	if s.err != nil {
		return domain.Plan{}, s.err
	}
	s.plans = append(s.plans, p)
	return p, nil
}

func TestLoad(t *testing.T) {
	c, err := catalog.Load("testdata/catalog.yaml")
	require.NoError(t, err)

	offers := c.DomainOffers()
	require.Len(t, offers, 2)
	assert.Equal(t, "free-wash", offers[0].ID)
	assert.True(t, offers[0].ValidFrom.IsZero(), "missing bound stays open")
	assert.Equal(t, int64(300), offers[1].PointsRequired)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), offers[1].ValidTo.UTC())

	plans := c.DomainPlans()
	require.Len(t, plans, 2)
	assert.Equal(t, "basic", plans[0].ID)
	assert.Equal(t, "gold", plans[1].ID)
	assert.True(t, plans[1].Limitations["towing"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := catalog.Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", "offers: [\n"},
		{"zero cost", "offers:\n  - id: a\n    points_required: 0\n"},
		{"missing id", "offers:\n  - title: x\n    points_required: 5\n"},
		{"duplicate id", "offers:\n  - id: a\n    points_required: 5\n  - id: a\n    points_required: 6\n"},
		{"inverted window", "offers:\n  - id: a\n    points_required: 5\n    valid_from: 2026-02-01T00:00:00Z\n    valid_to: 2026-01-01T00:00:00Z\n"},
		{"nameless plan", "plans:\n  gold:\n    limitations: {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestSeed(t *testing.T) {
	c, err := catalog.Load("testdata/catalog.yaml")
	require.NoError(t, err)

	s := &recordingSaver{}
	require.NoError(t, c.Seed(context.Background(), s))

	assert.Len(t, s.plans, 2)
	assert.Len(t, s.offers, 2)
}

func TestSeed_PropagatesErrors(t *testing.T) {
	c, err := catalog.Load("testdata/catalog.yaml")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = c.Seed(context.Background(), &recordingSaver{err: boom})
	assert.ErrorIs(t, err, boom)
}
