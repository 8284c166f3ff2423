package storage

import (
	"context"

	"cashback-scraper/models"
)

// ReportWriter is the interface any output backend must satisfy.
type ReportWriter interface {
	Write(ctx context.Context, report *models.RunReport) error
	Close() error
}

// History is a ReportWriter that can also answer questions about past runs.
type History interface {
	ReportWriter
	// PreviousBest returns merchant name -> best rate of kind from the most
	// recent stored run.
	PreviousBest(ctx context.Context, kind models.OfferKind) (map[string]float64, error)
}
