package catalog

import "cashback-scraper/models"

func merchant(name, slug, widiloSlug string, ebuyclubID int, category, icon string) models.MerchantSpec {
	m := models.MerchantSpec{
		Name:     name,
		Slug:     slug,
		EBuyClub: ebuyclubID,
		Category: category,
		Icon:     icon,
	}
	if widiloSlug != slug {
		m.Slugs = map[string]string{"widilo": widiloSlug}
	}
	return m
}

func defaultMerchants() []models.MerchantSpec {
	return []models.MerchantSpec{
		merchant("AliExpress", "aliexpress", "aliexpress", 6325, "Marketplace", "🛒"),
		merchant("Cdiscount", "cdiscount", "cdiscount", 104, "Marketplace", "🛒"),
		merchant("Rakuten", "rakuten", "rakuten", 305, "Marketplace", "🛒"),
		merchant("Fnac", "fnac", "fnac", 58, "High-Tech", "📀"),
		merchant("Darty", "darty", "darty", 846, "Électroménager", "🔌"),
		merchant("Boulanger", "boulanger", "boulanger", 993, "Électroménager", "🔌"),
		merchant("Samsung", "samsung", "samsung", 4498, "High-Tech", "📱"),
		merchant("ASOS", "asos", "asos", 3419, "Mode", "👗"),
		merchant("SHEIN", "shein", "shein", 7494, "Mode", "👗"),
		merchant("Zalando", "zalando", "zalando", 3601, "Mode", "👟"),
		merchant("La Redoute", "la-redoute", "la-redoute", 56, "Mode", "👗"),
		merchant("Showroomprive", "showroomprive", "showroomprive", 1498, "Ventes privées", "🏷️"),
		merchant("Nike", "nike", "nike", 1145, "Sport", "👟"),
		merchant("Adidas", "adidas", "adidas", 1356, "Sport", "👟"),
		merchant("Decathlon", "decathlon", "decathlon", 880, "Sport", "⚽"),
		merchant("Sephora", "sephora", "sephora", 683, "Beauté", "💄"),
		merchant("Nocibe", "nocibe", "nocibe", 1863, "Beauté", "💄"),
		merchant("Yves Rocher", "yves-rocher", "yves-rocher", 117, "Beauté", "🌿"),
		merchant("Booking", "booking", "booking-com", 972, "Voyage", "🏨"),
		merchant("Expedia", "expedia", "expedia", 487, "Voyage", "✈️"),
		merchant("IKEA", "ikea", "ikea", 6214, "Maison", "🛋️"),
		merchant("Maisons du Monde", "maisons-du-monde", "maisons-du-monde", 1699, "Maison", "🛋️"),
		merchant("Uber Eats", "uber-eats", "uber-eats", 7099, "Livraison", "🍔"),
	}
}
