package domain

import (
	"time"

	"github.com/google/uuid"
)

// ValidationIssue is one structured error or warning produced by the validation gate.
type ValidationIssue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ValidationMetrics are the measurements a validation run is based on.
type ValidationMetrics struct {
	WordCount             int  `json:"word_count"`
	InternalLinks         int  `json:"internal_links"`
	ExternalLinks         int  `json:"external_links"`
	AffiliateLinks        int  `json:"affiliate_links"`
	RawLinks              int  `json:"raw_links"`
	TitleLength           int  `json:"title_length"`
	MetaDescriptionLength int  `json:"meta_description_length"`
	HasStructuredData     bool `json:"has_structured_data"`
}

// ValidationResult is the verdict of a single validation gate run.
type ValidationResult struct {
	Passed   bool              `json:"passed"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
	Metrics  ValidationMetrics `json:"metrics"`
}

// ValidationLog is the immutable audit row written for every validation run.
type ValidationLog struct {
	ID        uuid.UUID
	ContentID uuid.UUID
	Passed    bool
	Errors    []ValidationIssue
	Warnings  []ValidationIssue
	Metrics   ValidationMetrics
	CreatedAt time.Time
}
