package types

import (
	"regexp"
	"strings"
	"time"
)

// ProductStatus is the lifecycle state of a product's analysis.
type ProductStatus string

const (
	StatusPending    ProductStatus = "pending"
	StatusProcessing ProductStatus = "processing"
	StatusCompleted  ProductStatus = "completed"
	StatusFailed     ProductStatus = "failed"
)

// Product represents a product submitted for review analysis.
type Product struct {
	ID              string            `json:"product_id"`
	Name            string            `json:"product_name"`
	Status          ProductStatus     `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ProcessingStats *ProcessingStats  `json:"processing_stats,omitempty"`
}

// ProcessingStats records how the last pipeline run went.
type ProcessingStats struct {
	SourcesFound     int `json:"sources_found"`
	ScrapesAttempted int `json:"scrapes_attempted"`
	ScrapesSucceeded int `json:"scrapes_succeeded"`
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ProductID derives a stable slug identifier from a product name.
// "iPhone 15 Pro" -> "iphone-15-pro".
func ProductID(name string) string {
	id := strings.ToLower(name)
	id = nonSlugChars.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}
