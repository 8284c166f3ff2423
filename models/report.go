package models

import "time"

// RunStats holds the counters of a single run.
type RunStats struct {
	TotalMerchants         int            `json:"total_merchants"`
	MerchantsWithOffers    int            `json:"merchants_with_offers"`
	MerchantsWithoutOffers int            `json:"merchants_without_offers"`
	TotalOffers            int            `json:"total_offers"`
	CashbackOffers         int            `json:"cashback_offers"`
	VoucherOffers          int            `json:"bon_achat_offers"`
	Fetches                int            `json:"fetches"`
	Errors                 int            `json:"errors"`
	ErrorsByOutcome        map[string]int `json:"errors_by_outcome,omitempty"`
	NoOfferMerchants       []string       `json:"no_offer_merchants,omitempty"`
	DurationSeconds        float64        `json:"duration_seconds"`
}

// RunReport is the document persisted at the end of each run.
type RunReport struct {
	RunID            string           `json:"run_id"`
	LastUpdated      time.Time        `json:"last_updated"`
	LastUpdatedHuman string           `json:"last_updated_human"`
	Stats            RunStats         `json:"stats"`
	Merchants        []MerchantResult `json:"merchants"`
}
