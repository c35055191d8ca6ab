// Package catalog reads the offer and plan catalog from a YAML file.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Offer is one redeemable offer in the catalog file.
type Offer struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Description    string    `yaml:"description"`
	PointsRequired int64     `yaml:"points_required"`
	ValidFrom      time.Time `yaml:"valid_from"`
	ValidTo        time.Time `yaml:"valid_to"`
}

// Plan is one subscription plan in the catalog file.
type Plan struct {
	Name        string          `yaml:"name"`
	Limitations map[string]bool `yaml:"limitations"`
}

// Catalog represents a parsed catalog file. Plans are keyed by id.
type Catalog struct {
	Offers []Offer         `yaml:"offers"`
	Plans  map[string]Plan `yaml:"plans"`
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a catalog document and checks every entry.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Offers))
	for i, o := range c.Offers {
		if err := o.toDomain().Validate(); err != nil {
			return nil, fmt.Errorf("offer #%d: %w", i+1, err)
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("offer %q: duplicate id", o.ID)
		}
		seen[o.ID] = true
	}

	for id, p := range c.Plans {
		if p.Name == "" {
			return nil, fmt.Errorf("plan %q: name is required", id)
		}
	}

	return &c, nil
}

func (o Offer) toDomain() domain.Offer {
	return domain.Offer{
		ID:             o.ID,
		Title:          o.Title,
		Description:    o.Description,
		PointsRequired: o.PointsRequired,
		ValidFrom:      o.ValidFrom,
		ValidTo:        o.ValidTo,
	}
}

// DomainOffers returns the offers in file order.
func (c *Catalog) DomainOffers() []domain.Offer {
	out := make([]domain.Offer, len(c.Offers))
	for i, o := range c.Offers {
		out[i] = o.toDomain()
	}
	return out
}

// DomainPlans returns the plans sorted by id.
func (c *Catalog) DomainPlans() []domain.Plan {
	out := make([]domain.Plan, 0, len(c.Plans))
	for id, p := range c.Plans {
		out = append(out, domain.Plan{ID: id, Name: p.Name, Limitations: p.Limitations})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Saver stores catalog entries. LoyaltyService implements it.
type Saver interface {
	SaveOffer(ctx context.Context, offer domain.Offer) (domain.Offer, error)
	SavePlan(ctx context.Context, plan domain.Plan) (domain.Plan, error)
}

// Seed upserts every plan and offer. Existing entries with the same id are replaced.
func (c *Catalog) Seed(ctx context.Context, s Saver) error {
	for _, p := range c.DomainPlans() {
		if _, err := s.SavePlan(ctx, p); err != nil {
			return fmt.Errorf("seeding plan %q: %w", p.ID, err)
		}
	}
	for _, o := range c.DomainOffers() {
		if _, err := s.SaveOffer(ctx, o); err != nil {
			return fmt.Errorf("seeding offer %q: %w", o.ID, err)
		}
	}
	return nil
}
