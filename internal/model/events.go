package model

import "encoding/json"

// IngestBatch is one crawler message on catalog.parts.ingest.
type IngestBatch struct {
	BatchID   string       `json:"batch_id" validate:"required,max=64"`
	Source    string       `json:"source,omitempty"`
	CrawledAt string       `json:"crawled_at,omitempty"`
	Parts     []PartIngest `json:"parts" validate:"required,min=1,max=5000"`
}

// PartIngest is a crawler row. Category stays a raw label so unknown values
// surface as rejections.
type PartIngest struct {
	Name         string          `json:"name" validate:"required,max=512"`
	Category     string          `json:"category" validate:"required"`
	Price        int             `json:"price" validate:"gt=0"`
	Link         string          `json:"link" validate:"required,url,max=512"`
	ImgSrc       string          `json:"img_src" validate:"omitempty,url,max=512"`
	Manufacturer string          `json:"manufacturer"`
	WarrantyInfo string          `json:"warranty_info"`
	ReviewCount  int             `json:"review_count" validate:"gte=0"`
	StarRating   float64         `json:"star_rating" validate:"gte=0,lte=5"`
	Specs        json.RawMessage `json:"specs,omitempty"`
}

// PartAccepted is emitted after the curated writer commits a part. It is
// published to catalog.parts.accepted and consumed by the filter projector.
type PartAccepted struct {
	PartID       int64             `json:"part_id"`
	Category     Category          `json:"category"`
	Link         string            `json:"link"`
	Manufacturer string            `json:"manufacturer,omitempty"`
	Specs        map[string]string `json:"specs"`     // flattened scalar spec values
	Timestamp    string            `json:"timestamp"` // commit time (RFC3339Nano)
}

// Advisor flows recorded in EstimateRecorded.Flow.
const (
	FlowChat           = "chat"
	FlowLegacyEstimate = "legacy_estimate"
	FlowEstimate       = "estimate"
)

// EstimateRecorded is the audit record of one advisor call published to
// advisor.estimates. It never carries model output.
type EstimateRecorded struct {
	ID         string           `json:"id"`
	Flow       string           `json:"flow"`
	Category   string           `json:"category,omitempty"`
	Summary    *EstimateSummary `json:"summary,omitempty"`
	Outcome    string           `json:"outcome"` // ok, or the failure class
	DurationMs int64            `json:"duration_ms"`
	Timestamp  string           `json:"timestamp"`
}
