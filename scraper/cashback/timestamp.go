package cashback

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FrenchTimestamp formats t in Paris time, e.g. "19 octobre 2026 à 12h20".
func FrenchTimestamp(t time.Time) string {
	if loc, err := time.LoadLocation("Europe/Paris"); err == nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d %s %d à %02dh%02d", t.Day(), frenchMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
