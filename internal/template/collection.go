package template

import (
	"fmt"
	"math/rand/v2"
)

// CollectionEntry is one candidate template with its relative weight.
type CollectionEntry struct {
	Template string  `yaml:"template" json:"template"`
	Weight   float64 `yaml:"weight" json:"weight"`
}

// Collection is a weighted set of templates; an instance bound to a
// collection builds the entry its seed picks.
type Collection struct {
	Path    string            `yaml:"path" json:"path"`
	Entries []CollectionEntry `yaml:"entries" json:"entries"`
}

// Pick returns the template chosen by seed. Entries with non-positive
// weight are never picked unless every weight is non-positive, in which
// case entries are equally likely.
func (c *Collection) Pick(seed int64) (string, error) {
	if len(c.Entries) == 0 {
		return "", fmt.Errorf("picking from %s: %w", c.Path, ErrEmptyCollection)
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(len(c.Entries))))

	total := 0.0
	for _, e := range c.Entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	if total == 0 {
		return c.Entries[rng.IntN(len(c.Entries))].Template, nil
	}

	x := rng.Float64() * total
	for _, e := range c.Entries {
		if e.Weight <= 0 {
			continue
		}
		if x < e.Weight {
			return e.Template, nil
		}
		x -= e.Weight
	}
	for i := len(c.Entries) - 1; i >= 0; i-- {
		if c.Entries[i].Weight > 0 {
			return c.Entries[i].Template, nil
		}
	}
	return c.Entries[len(c.Entries)-1].Template, nil
}
