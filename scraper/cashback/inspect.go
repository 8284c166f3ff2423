package cashback

import (
	"context"

	"cashback-scraper/models"
)

// Inspection is the diagnostic view of one merchant page.
type Inspection struct {
	Platform string
	Result   models.FetchResult
	Rates    map[models.OfferKind]float64
}

// Inspect fetches every platform page of m and reports what the extractor
// saw, without aggregating.
func (s *Scraper) Inspect(ctx context.Context, m models.MerchantSpec) []Inspection {
	out := make([]Inspection, 0, len(s.platforms))
	for _, p := range s.platforms {
		res, found := s.scrapePlatform(ctx, m, p)
		if found == nil {
			found = map[models.OfferKind]float64{}
		}
		out = append(out, Inspection{Platform: p.Name, Result: res, Rates: found})
	}
	return out
}
