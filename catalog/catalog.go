package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/antzucaro/matchr"
	"github.com/titanous/json5"

	"cashback-scraper/models"
)

// Policy overrides the plausibility bounds from a catalog file. Zero values
// leave the configured bounds untouched.
type Policy struct {
	MaxCashbackRate float64 `json:"max_cashback_rate,omitempty"`
	MaxVoucherRate  float64 `json:"max_voucher_rate,omitempty"`
}

// Catalog is the ordered, immutable list of merchants to scrape.
type Catalog struct {
	Merchants []models.MerchantSpec `json:"merchants"`
	Policy    Policy                `json:"policy"`
}

// Default returns the built-in merchant table.
func Default() *Catalog {
	return &Catalog{Merchants: defaultMerchants()}
}

// Load reads a json5 catalog file. A sibling "<name>.local.json5" file, when
// present, is merged over it. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	var out Catalog
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}

	localPath := localName(path)
	local, err := os.ReadFile(localPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("catalog: read %q: %w", localPath, err)
	}
	if len(local) > 0 {
		var override Catalog
		if err := json5.Unmarshal(local, &override); err != nil {
			return nil, fmt.Errorf("catalog: parse %q: %w", localPath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("catalog: merge %q: %w", localPath, err)
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks every merchant has a name and a slug, and names are unique.
func (c *Catalog) Validate() error {
	if len(c.Merchants) == 0 {
		return errors.New("catalog: no merchants")
	}
	seen := make(map[string]struct{}, len(c.Merchants))
	for i, m := range c.Merchants {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("catalog: merchant #%d has no name", i)
		}
		if strings.TrimSpace(m.Slug) == "" {
			return fmt.Errorf("catalog: merchant %q has no slug", m.Name)
		}
		key := strings.ToLower(m.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("catalog: duplicate merchant %q", m.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Filter returns a catalog restricted to the named merchants (case-insensitive),
// keeping catalog order. No names means no filtering.
func (c *Catalog) Filter(names []string) *Catalog {
	if len(names) == 0 {
		return c
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}

	out := &Catalog{Policy: c.Policy}
	for _, m := range c.Merchants {
		_, byName := wanted[strings.ToLower(m.Name)]
		_, bySlug := wanted[strings.ToLower(m.Slug)]
		if byName || bySlug {
			out.Merchants = append(out.Merchants, m)
		}
	}
	return out
}

func localName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// Suggest returns the merchant name closest to name, for "did you mean"
// hints. ok is false when nothing is reasonably close.
func (c *Catalog) Suggest(name string) (suggestion string, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	var best float64
	for _, m := range c.Merchants {
		for _, candidate := range []string{strings.ToLower(m.Name), m.Slug} {
			if sim := matchr.JaroWinkler(name, candidate, false); sim > best {
				best = sim
				suggestion = m.Name
			}
		}
	}
	return suggestion, best >= suggestThreshold
}

const suggestThreshold = 0.8
