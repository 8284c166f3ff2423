package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"cashback-scraper/models"
)

// number matches a decimal rate after normalisation (comma already turned into a dot).
const number = `(\d+(?:\.\d+)?)`

var (
	// decimalCommaRegexp finds "4,5" style decimals
	decimalCommaRegexp = regexp.MustCompile(`(\d),(\d)`)

	apostropheReplacer = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'")
)

// Template is one candidate-generating pattern. Its first capture group must be
// the rate.
type Template struct {
	Name string
	Re   *regexp.Regexp
}

// NewTemplate compiles a pattern. Patterns run against normalised text, so
// they should be written in lower case with '.' decimals.
func NewTemplate(name, pattern string) Template {
	return Template{Name: name, Re: regexp.MustCompile(pattern)}
}

// DefaultTemplates returns the built-in templates per kind, in priority order.
func DefaultTemplates() map[models.OfferKind][]Template {
	return map[models.OfferKind][]Template{
		models.KindCashback: {
			NewTemplate("jusqua-cashback", `jusqu'(?:à|a)\s*`+number+`\s*%\s*(?:de\s+|en\s+)?cash\s*-?back`),
			NewTemplate("plus-cashback", `\+?\s*`+number+`\s*%\s*(?:de\s+|en\s+)?cash\s*-?back`),
			NewTemplate("cashback-rate", `cash\s*-?back\s*(?:de\s+|:\s*)?(?:jusqu'(?:à|a)\s*)?\+?\s*`+number+`\s*%`),
			NewTemplate("rembourse", `(?:jusqu'(?:à|a)\s*)?`+number+`\s*%\s*(?:de\s+|d'achats?\s+)?rembours(?:é|e)e?s?`),
			NewTemplate("remboursement", `(?:jusqu'(?:à|a)\s*)?`+number+`\s*%\s*(?:de\s+|en\s+)?remboursement`),
		},
		models.KindVoucher: {
			NewTemplate("jusqua-bon-achat", `jusqu'(?:à|a)\s*`+number+`\s*%\s*(?:en\s+|de\s+)?bons?\s+d'achats?`),
			NewTemplate("plus-bon-achat", `\+?\s*`+number+`\s*%\s*(?:en\s+|de\s+)?bons?\s+d'achats?`),
			NewTemplate("bon-achat-rate", `bons?\s+d'achats?\s*(?:de\s+|:\s*)?(?:jusqu'(?:à|a)\s*)?\+?\s*`+number+`\s*%`),
			NewTemplate("carte-cadeau", `(?:jusqu'(?:à|a)\s*)?\+?\s*`+number+`\s*%\s*(?:en\s+|de\s+|sur\s+)?(?:la\s+|une\s+|vos\s+)?cartes?[\s-]+cadeaux?`),
			NewTemplate("carte-cadeau-rate", `cartes?[\s-]+cadeaux?\s*(?:de\s+|:\s*)?(?:jusqu'(?:à|a)\s*)?\+?\s*`+number+`\s*%`),
		},
	}
}

// Candidate is a rate captured by a template, before the plausibility filter.
type Candidate struct {
	Template string
	Raw      string
}

// RatePolicy holds the plausibility bounds. Rates outside (0, max] are treated
// as discounts or noise.
type RatePolicy struct {
	MaxCashback float64
	MaxVoucher  float64
}

// DefaultRatePolicy returns the empirical bounds observed on the platforms.
func DefaultRatePolicy() RatePolicy {
	return RatePolicy{MaxCashback: 20, MaxVoucher: 25}
}

// Max returns the upper bound for a kind.
func (p RatePolicy) Max(kind models.OfferKind) float64 {
	if kind == models.KindVoucher {
		return p.MaxVoucher
	}
	return p.MaxCashback
}

// Accept parses a candidate and reports whether it is a plausible rate.
func (p RatePolicy) Accept(kind models.OfferKind, c Candidate) (float64, bool) {
	val, err := strconv.ParseFloat(c.Raw, 64)
	if err != nil {
		return 0, false
	}
	if val <= 0 || val > p.Max(kind) {
		return 0, false
	}
	return val, true
}

// RateExtractor finds cashback and voucher rates in page text.
type RateExtractor struct {
	templates map[models.OfferKind][]Template
	policy    RatePolicy
}

// NewRateExtractor creates an extractor with the default templates.
func NewRateExtractor(policy RatePolicy) *RateExtractor {
	return &RateExtractor{templates: DefaultTemplates(), policy: policy}
}

// Policy returns the plausibility bounds in use.
func (e *RateExtractor) Policy() RatePolicy {
	return e.policy
}

// AddTemplate appends a template for kind, after the existing ones.
func (e *RateExtractor) AddTemplate(kind models.OfferKind, t Template) {
	e.templates[kind] = append(e.templates[kind], t)
}

// Candidates yields every capture of every template for kind, in priority
// order: extra templates first, then the defaults, each scanned left to right.
// Text must already be normalised.
func (e *RateExtractor) Candidates(text string, kind models.OfferKind, extra []Template) []Candidate {
	var out []Candidate
	scan := func(tpls []Template) {
		for _, t := range tpls {
			for _, m := range t.Re.FindAllStringSubmatch(text, -1) {
				if len(m) < 2 || m[1] == "" {
					continue
				}
				out = append(out, Candidate{Template: t.Name, Raw: m[1]})
			}
		}
	}
	scan(extra)
	scan(e.templates[kind])
	return out
}

// Extract returns the rate for kind, or ok=false when nothing plausible is
// found. A zero rate is never returned with ok=true.
func (e *RateExtractor) Extract(text string, kind models.OfferKind, extra ...Template) (rate float64, ok bool) {
	normalised := NormaliseRateText(text)
	if normalised == "" {
		return 0, false
	}
	for _, c := range e.Candidates(normalised, kind, extra) {
		if val, accepted := e.policy.Accept(kind, c); accepted {
			return val, true
		}
	}
	return 0, false
}

// ExtractAll runs Extract for every kind and returns only the kinds found.
func (e *RateExtractor) ExtractAll(text string, extra map[models.OfferKind][]Template) map[models.OfferKind]float64 {
	found := make(map[models.OfferKind]float64, len(models.Kinds))
	for _, kind := range models.Kinds {
		if rate, ok := e.Extract(text, kind, extra[kind]...); ok {
			found[kind] = rate
		}
	}
	return found
}

// NormaliseRateText lowercases, turns decimal commas into dots, unifies
// apostrophes and collapses whitespace.
func NormaliseRateText(s string) string {
	s = strings.ToLower(s)
	s = apostropheReplacer.Replace(s)
	s = decimalCommaRegexp.ReplaceAllString(s, "$1.$2")
	return normaliseText(s)
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace. unicode.IsSpace covers non-breaking spaces.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
