package domain

import "time"

// DataType tells whether a finding comes from an official record or public coverage.
type DataType string

const (
	DataTypeOfficial DataType = "official"
	DataTypePublic   DataType = "public"
)

// CollectedItem is one rated finding about a politician for one category.
type CollectedItem struct {
	ID              string    `json:"id"`
	PoliticianID    string    `json:"politician_id" validate:"required"`
	Category        int       `json:"category" validate:"min=1,max=10"`
	CollectorSource string    `json:"collector_source" validate:"required"`
	Title           string    `json:"title" validate:"required"`
	Content         string    `json:"content"`
	SourceName      string    `json:"source_name,omitempty"`
	URL             string    `json:"url,omitempty"`
	DataType        DataType  `json:"data_type" validate:"oneof=official public"`
	Rating          int       `json:"rating" validate:"min=0"`
	Reliability     float64   `json:"reliability" validate:"min=0,max=1"`
	CreatedAt       time.Time `json:"created_at"`
}
