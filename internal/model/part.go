package model

import "strconv"

// Part is one catalog component. Specs is the raw JSON spec blob; empty
// means the part has no spec row.
type Part struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Price        int      `json:"price"`
	Link         string   `json:"link,omitempty"`
	ImgSrc       string   `json:"imgSrc,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	WarrantyInfo string   `json:"warrantyInfo,omitempty"`
	ReviewCount  int      `json:"reviewCount"`
	StarRating   float64  `json:"starRating"`
	Specs        string   `json:"specs,omitempty"`
}

// DedupeKey identifies a committed crawl of the part: the same link at the
// same price. A price change yields a new key.
func (p Part) DedupeKey() string {
	return p.Link + "#" + strconv.Itoa(p.Price)
}

// Review is a community review attached to a part.
type Review struct {
	ID          int64   `json:"id"`
	PartID      int64   `json:"partId"`
	Source      string  `json:"source"`
	ReviewURL   string  `json:"reviewUrl"`
	RawText     string  `json:"rawText"`
	AISummary   string  `json:"aiSummary,omitempty"`
	ReviewScore float64 `json:"reviewScore,omitempty"`
}

// SortField names the columns catalog reads may be ordered by.
type SortField string

const (
	SortByID          SortField = "id"
	SortByPrice       SortField = "price"
	SortByReviewCount SortField = "review_count"
	SortByStarRating  SortField = "star_rating"
	SortByName        SortField = "name"
)

// Sort is a single sort key.
type Sort struct {
	Field SortField
	Desc  bool
}

var (
	// CheapestFirst orders single-component advice.
	CheapestFirst = Sort{Field: SortByPrice}
	// MostReviewedFirst orders full-build estimates.
	MostReviewedFirst = Sort{Field: SortByReviewCount, Desc: true}
)

// Page is one slice of a filtered catalog read.
type Page struct {
	Parts  []Part `json:"parts"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// HasMore reports whether rows remain past this page.
func (p Page) HasMore() bool {
	return p.Offset+len(p.Parts) < p.Total
}
