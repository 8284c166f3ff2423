package services

import (
	"cashback-scraper/models"
	"cashback-scraper/utils"
)

// Aggregator turns the offers gathered for a merchant into its result record.
type Aggregator struct {
	logger           *utils.Logger
	emitPlaceholders bool
}

// NewAggregator creates an Aggregator. When emitPlaceholders is false,
// merchants with no offer are dropped from the result set; otherwise they are
// kept as zero-rate entries.
func NewAggregator(logger *utils.Logger, emitPlaceholders bool) *Aggregator {
	return &Aggregator{logger: logger, emitPlaceholders: emitPlaceholders}
}

// Aggregate builds the MerchantResult for spec. The boolean is false when the
// merchant has no offer and the exclusion policy applies.
func (a *Aggregator) Aggregate(spec models.MerchantSpec, offers []models.Offer) (models.MerchantResult, bool) {
	result := models.MerchantResult{
		Name:     spec.Name,
		Slug:     spec.Slug,
		Category: spec.Category,
		Icon:     spec.Icon,
		Offers:   make([]models.Offer, 0, len(offers)),
	}

	for _, o := range offers {
		if o.Rate <= 0 {
			if a.logger != nil {
				a.logger.Debug("[aggregator] %s: ignoring non-positive %s rate from %s", spec.Name, o.Kind, o.Platform)
			}
			continue
		}
		result.Offers = append(result.Offers, o)
	}

	if len(result.Offers) == 0 {
		return result, a.emitPlaceholders
	}

	result.BestCashback = SelectBest(result.Offers, models.KindCashback)
	result.BestBonAchat = SelectBest(result.Offers, models.KindVoucher)

	switch {
	case result.BestCashback != nil:
		result.BestRate = result.BestCashback.Rate
		result.BestPlatform = result.BestCashback.Platform
	case result.BestBonAchat != nil:
		result.BestRate = result.BestBonAchat.Rate
		result.BestPlatform = result.BestBonAchat.Platform
	}

	return result, true
}

// SelectBest returns the highest-rate offer of kind, or nil. On ties the first
// offer encountered wins, so platform order decides.
func SelectBest(offers []models.Offer, kind models.OfferKind) *models.BestOffer {
	var best *models.BestOffer
	for _, o := range offers {
		if o.Kind != kind {
			continue
		}
		if best == nil || o.Rate > best.Rate {
			best = &models.BestOffer{Rate: o.Rate, Platform: o.Platform, URL: o.URL}
		}
	}
	return best
}
