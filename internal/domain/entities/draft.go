package entities

// DraftRequest is the payload sent to an external drafting service
type DraftRequest struct {
	QueryText string `json:"queryText"`
	Condition string `json:"condition"`
}

// DraftResult is the settled outcome of a draft request. OK is false when no draft is available.
type DraftResult struct {
	Text string
	OK   bool
}
