// Package platforms describes the cashback sites as data: how to build a
// merchant URL and which site-specific patterns to try first.
package platforms

import (
	"fmt"
	"net/url"
	"strings"

	"cashback-scraper/models"
	"cashback-scraper/services"
)

// Platform is a generic adapter for one cashback site.
type Platform struct {
	// Key identifies the platform in catalog slug overrides.
	Key  string
	Name string
	// URLTemplate receives the slug, then the numeric id when NeedsID is set.
	URLTemplate string
	NeedsID     bool
	// UseFragments appends rate-classed DOM fragments to title + meta.
	UseFragments bool
	Templates    map[models.OfferKind][]services.Template
}

// URL builds the merchant page URL. ok is false when the platform cannot
// address this merchant (missing slug or id).
func (p Platform) URL(m models.MerchantSpec) (string, bool) {
	slug := m.SlugFor(p.Key)
	if slug == "" {
		return "", false
	}
	slug = url.PathEscape(slug)
	if p.NeedsID {
		id := m.EBuyClub
		if id <= 0 {
			return "", false
		}
		return fmt.Sprintf(p.URLTemplate, slug, id), true
	}
	return fmt.Sprintf(p.URLTemplate, slug), true
}

// Default returns the supported platforms in scraping order. Order matters:
// it breaks ties between equal rates.
func Default() []Platform {
	return []Platform{
		{
			Key:         "poulpeo",
			Name:        "Poulpeo",
			URLTemplate: "https://www.poulpeo.com/reductions-%s.htm",
			Templates: map[models.OfferKind][]services.Template{
				models.KindCashback: {
					services.NewTemplate("poulpeo-reverses", `(?:jusqu'(?:à|a)\s*)?(\d+(?:\.\d+)?)\s*%\s*revers(?:é|e)s`),
				},
			},
		},
		{
			Key:         "widilo",
			Name:        "Widilo",
			URLTemplate: "https://www.widilo.fr/code-promo/%s",
		},
		{
			Key:          "ebuyclub",
			Name:         "eBuyClub",
			URLTemplate:  "https://www.ebuyclub.com/reduction-%s-%d",
			NeedsID:      true,
			UseFragments: true,
			Templates: map[models.OfferKind][]services.Template{
				models.KindVoucher: {
					// "en bons" alone or "en bons d'achat", never "en bons plans"
					services.NewTemplate("ebuyclub-en-bons",
						`(\d+(?:\.\d+)?)\s*%\s*en\s+bons?(?:\s+d'achats?|\s*$|\s*[^\s\p{L}]|\s+(?:[^p\s]|p[^l]))`),
				},
			},
		},
		{
			Key:         "igraal",
			Name:        "iGraal",
			URLTemplate: "https://fr.igraal.com/codes-promo/%s",
		},
	}
}

// Filter keeps the platforms whose key or name is listed, in default order.
// No names means every platform.
func Filter(all []Platform, names []string) []Platform {
	if len(names) == 0 {
		return all
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[normalise(n)] = struct{}{}
	}
	var out []Platform
	for _, p := range all {
		_, byKey := wanted[normalise(p.Key)]
		_, byName := wanted[normalise(p.Name)]
		if byKey || byName {
			out = append(out, p)
		}
	}
	return out
}

func normalise(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
