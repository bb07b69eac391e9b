package bulk

import "time"

// Submission is the receipt returned once a work order is stored and dispatched
type Submission struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	ContentHash string    `json:"content_hash"`
	KeyCount    int       `json:"key_count"`
	ActionType  string    `json:"action_type"`
	SubmittedAt time.Time `json:"submitted_at"`
}
