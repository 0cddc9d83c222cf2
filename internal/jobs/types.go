package jobs

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type EnqueueRequest struct {
	Source    string
	DedupeKey string
	Payload   JobPayload
}

// JobPayload identifies one subtitle-filtering run: whose vocabulary
// to filter against and which transcript to process.
type JobPayload struct {
	UserID         string `json:"user_id"`
	SubtitleFile   string `json:"subtitle_file"`
	Language       string `json:"language,omitempty"` // empty means detect on parse
	TargetLanguage string `json:"target_language"`
	LearnerLevel   string `json:"learner_level"` // CEFR band, e.g. "B1"
}

type FilterJob struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	DedupeKey string     `json:"dedupe_key"`
	Payload   JobPayload `json:"payload"`
	Status    Status     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
