package tier

import (
	"fmt"
	"time"

	"mercator-hq/ganymede/pkg/admission/bucket"
)

// Tier is a named quota policy bound to one or more model identifiers.
// The limiter treats tiers as read-only; creation and updates are an
// administrative concern of whatever produces the Source.
type Tier struct {
	// ID is the tier name, unique across the configuration.
	ID string

	// Models is the set of model identifiers this tier governs. Non-empty,
	// and disjoint from every other tier's set.
	Models []string

	// Capacity is the bucket capacity for users hitting this tier.
	Capacity int64

	// RefillAmount is the number of tokens credited per refill interval.
	RefillAmount int64

	// RefillInterval is the length of one refill interval.
	RefillInterval time.Duration
}

// Policy returns the bucket policy this tier applies.
func (t Tier) Policy() bucket.Policy {
	return bucket.Policy{
		Capacity:       t.Capacity,
		RefillAmount:   t.RefillAmount,
		RefillInterval: t.RefillInterval,
	}
}

// Validate checks a single tier. Cross-tier disjointness is checked when
// the registry builds its index.
func (t Tier) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tier id cannot be empty")
	}
	if len(t.Models) == 0 {
		return fmt.Errorf("tier %q must govern at least one model", t.ID)
	}
	for _, m := range t.Models {
		if m == "" {
			return fmt.Errorf("tier %q contains an empty model identifier", t.ID)
		}
	}
	if err := t.Policy().Validate(); err != nil {
		return fmt.Errorf("tier %q: %w", t.ID, err)
	}
	return nil
}
