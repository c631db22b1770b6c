package entities

// ComponentHealth is the state of one dependency
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport summarises the service for the health endpoint
type HealthReport struct {
	Status          string                     `json:"status"`
	Patients        int                        `json:"patients"`
	Doctors         int                        `json:"doctors"`
	Queries         int                        `json:"queries"`
	PendingQueries  int                        `json:"pending_queries"`
	DraftQueueDepth int                        `json:"draft_queue_depth"`
	Counters        Counters                   `json:"counters"`
	Components      map[string]ComponentHealth `json:"components,omitempty"`
}
