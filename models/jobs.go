package models

const (
	JobStatusPending    = "pending"
	JobStatusGenerating = "generating"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// GenerationJob tracks one asynchronous generation request.
type GenerationJob struct {
	JsonModel
	Pipeline string `gorm:"not null" json:"pipeline"`
	Status   string `gorm:"not null;index" json:"status"`
	// raw GenerationRequest, kept until the worker picks the job up
	RequestJSON     string   `gorm:"type:text" json:"-"`
	Images          []string `gorm:"serializer:json" json:"images"`
	RewrittenPrompt string   `gorm:"type:text" json:"rewritten_prompt"`
	Model           string   `json:"model"`
	Provider        string   `json:"provider"`
	Note            string   `gorm:"type:text" json:"note"`
	ErrorMessage    *string  `gorm:"type:text" json:"error_message"`
	ErrorDetails    []string `gorm:"serializer:json" json:"error_details"`
	Duration        *float64 `json:"duration"` // in seconds
}

func (j *GenerationJob) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
