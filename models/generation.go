package models

// GenerationRequest is the body of both generation routes.
type GenerationRequest struct {
	Selfie         string   `json:"selfie" validate:"required"`
	Prompt         string   `json:"prompt" validate:"required"`
	Location       string   `json:"location,omitempty"`
	CoCreateImages []string `json:"coCreateImages,omitempty"`
	OutfitImage    string   `json:"outfitImage,omitempty"`
	PoseImage      string   `json:"poseImage,omitempty"`
	LocationImage  string   `json:"locationImage,omitempty"`
}

type GenerationResponse struct {
	Images          []string `json:"images"`
	RewrittenPrompt string   `json:"rewrittenPrompt"`
	Generated       bool     `json:"generated"`
	Model           string   `json:"model"`
	Provider        string   `json:"provider,omitempty"`
	Note            string   `json:"note"`
}

// JobIn is the body of POST /api/jobs.
type JobIn struct {
	Pipeline string `json:"pipeline" validate:"required,pipeline"`
	GenerationRequest
}

type JobCreatedOut struct {
	JobID  uint   `json:"job_id"`
	Status string `json:"status"`
}

type AnalyzeImageIn struct {
	Image string `json:"image" validate:"required"`
}

type ErrorOut struct {
	Error      string `json:"error"`
	Details    any    `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Model      string `json:"model,omitempty"`
	RawText    string `json:"rawText,omitempty"`
}
