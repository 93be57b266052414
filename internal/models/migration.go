package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemState tracks how far a single product made it through the pipeline.
type ItemState string

const (
	StateMapping           ItemState = "MAPPING"
	StateProductCreated    ItemState = "PRODUCT_CREATED"
	StateVariantsAttached  ItemState = "VARIANTS_ATTACHED"
	StateCollectionsLinked ItemState = "COLLECTIONS_LINKED"
	StateMetafieldsWritten ItemState = "METAFIELDS_WRITTEN"
	StateDone              ItemState = "DONE"
	StateFailed            ItemState = "FAILED"
)

// ItemReport is the per-product outcome of one migration attempt.
type ItemReport struct {
	SourceID      int64     `json:"sourceId"`
	Name          string    `json:"name"`
	DestinationID int64     `json:"destinationId,omitempty"`
	State         ItemState `json:"state"`
	Reason        string    `json:"reason,omitempty"`
}

// Failed reports whether the item ended in the terminal failure state.
func (r *ItemReport) Failed() bool {
	return r.State == StateFailed
}

// RunProgress tracks counters across the catalog pass.
type RunProgress struct {
	TotalItems      int     `json:"totalItems"`
	ProcessedItems  int     `json:"processedItems"`
	SuccessfulItems int     `json:"successfulItems"`
	FailedItems     int     `json:"failedItems"`
	Percentage      float64 `json:"percentage"`
}

// RunSummary is the final accounting for one full catalog pass.
type RunSummary struct {
	RunID       uuid.UUID    `json:"runId"`
	StartedAt   time.Time    `json:"startedAt"`
	CompletedAt time.Time    `json:"completedAt"`
	Progress    RunProgress  `json:"progress"`
	Items       []ItemReport `json:"items"`
}
