package models

// MerchantSpec identifies one merchant across every cashback platform.
// Specs are built once from the catalog and never mutated afterwards.
type MerchantSpec struct {
	Name     string            `json:"name"`
	Slug     string            `json:"slug"`
	Slugs    map[string]string `json:"slugs,omitempty"`
	EBuyClub int               `json:"ebuyclub_id,omitempty"`
	Category string            `json:"category"`
	Icon     string            `json:"icon"`
}

// SlugFor returns the slug used by the given platform, falling back to the
// merchant's default slug.
func (m MerchantSpec) SlugFor(platform string) string {
	if s, ok := m.Slugs[platform]; ok && s != "" {
		return s
	}
	return m.Slug
}
