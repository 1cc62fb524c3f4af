package entity

// PageOutcome describes how a single results page ended.
type PageOutcome string

const (
	PageScraped PageOutcome = "scraped"
	PageTimeout PageOutcome = "timeout"
	PageFailed  PageOutcome = "failed"
)

// PageResult records what happened on one results page.
type PageResult struct {
	Page          int         `json:"page"`
	URL           string      `json:"url"`
	Outcome       PageOutcome `json:"outcome"`
	CardsFound    int         `json:"cards_found"`
	CardsAccepted int         `json:"cards_accepted"`
	RowsUpserted  int         `json:"rows_upserted"`
	DebugArtifact string      `json:"debug_artifact,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
}
