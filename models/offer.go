package models

// OfferKind is the type of reward a platform advertises.
type OfferKind string

const (
	KindCashback OfferKind = "cashback"
	KindVoucher  OfferKind = "bon_achat"
)

// Kinds lists every offer kind in extraction order.
var Kinds = []OfferKind{KindCashback, KindVoucher}

// Offer is one (platform, kind, rate) tuple extracted for a merchant.
type Offer struct {
	Platform string    `json:"platform"`
	Kind     OfferKind `json:"type"`
	Rate     float64   `json:"rate"`
	URL      string    `json:"url"`
}

// BestOffer is the winning offer of one kind for a merchant.
type BestOffer struct {
	Rate     float64 `json:"rate"`
	Platform string  `json:"platform"`
	URL      string  `json:"url,omitempty"`
}

// MerchantResult is the aggregated record written for a merchant.
type MerchantResult struct {
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Category     string     `json:"category"`
	Icon         string     `json:"icon"`
	Offers       []Offer    `json:"offers"`
	BestCashback *BestOffer `json:"best_cashback"`
	BestBonAchat *BestOffer `json:"best_bon_achat"`

	// Legacy fields kept for older consumers of the JSON file.
	BestRate     float64 `json:"best_rate"`
	BestPlatform string  `json:"best_platform"`
}

// Best returns the best offer of the given kind, or nil.
func (m *MerchantResult) Best(kind OfferKind) *BestOffer {
	switch kind {
	case KindCashback:
		return m.BestCashback
	case KindVoucher:
		return m.BestBonAchat
	}
	return nil
}
