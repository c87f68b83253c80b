package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"selfieapi/models"
	"selfieapi/services"
	"selfieapi/telegram"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	TypeGenerateImages = "generate:images"
	QueueGenerate      = "generate"
)

type GenerateImagesPayload struct {
	JobID uint `json:"job_id"`
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Generator runs one generation pipeline.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error)
}

func NewGenerateImagesTask(jobID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerateImagesPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateImages, payload), nil
}

// HandleGenerateImagesTask runs a queued GenerationJob through its pipeline and stores the outcome.
// Failed jobs are final: the error wraps asynq.SkipRetry and the admin chat is notified.
func HandleGenerateImagesTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, orchestrators map[string]Generator,
	notifier telegram.Notifier, deadline time.Duration, logger *zap.Logger,
) error {
	var payload GenerateImagesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("[Queue] invalid payload %q: %v: %w", string(t.Payload()), err, asynq.SkipRetry)
	}
	logger = logger.With(zap.Uint("job_id", payload.JobID))

	var job models.GenerationJob
	if err := db.WithContext(ctx).First(&job, payload.JobID).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[Queue] error on retrieving job %v: %w", payload.JobID, err))
		return fmt.Errorf("[Queue] job %v: %v: %w", payload.JobID, err, asynq.SkipRetry)
	}
	if job.Finished() {
		logger.Info("job already finished", zap.String("status", job.Status))
		return nil
	}
	job.Status = models.JobStatusGenerating
	if err := db.Save(&job).Error; err != nil {
		return fmt.Errorf("[Queue] job %v: marking generating: %w", job.ID, err)
	}

	started := time.Now()
	resp, err := runJob(ctx, &job, orchestrators, deadline)
	duration := time.Since(started).Seconds()
	if err != nil {
		message, details := failureOf(err)
		logger.Error("generation job failed", zap.String("pipeline", job.Pipeline), zap.Error(err))
		job.Status = models.JobStatusFailed
		job.ErrorMessage = &message
		job.ErrorDetails = details
		job.Duration = &duration
		job.RequestJSON = ""
		if saveErr := db.Save(&job).Error; saveErr != nil {
			sentry.CaptureException(saveErr)
		}
		if notifyErr := notifier.Notify(context.WithoutCancel(ctx), telegram.JobFailedMessage(job.ID, job.Pipeline, message, details)); notifyErr != nil {
			logger.Warn("failure alert not sent", zap.Error(notifyErr))
		}
		return fmt.Errorf("[Queue] job %v: %v: %w", job.ID, err, asynq.SkipRetry)
	}

	job.Status = models.JobStatusCompleted
	job.Images = resp.Images
	job.RewrittenPrompt = resp.RewrittenPrompt
	job.Model = resp.Model
	job.Provider = resp.Provider
	job.Note = resp.Note
	job.Duration = &duration
	job.RequestJSON = ""
	if err := db.Save(&job).Error; err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("[Queue] job %v: saving result: %w", job.ID, err)
	}
	logger.Info("generation job completed", zap.Int("images", len(resp.Images)), zap.Float64("duration", duration))
	return nil
}

func runJob(ctx context.Context, job *models.GenerationJob, orchestrators map[string]Generator, deadline time.Duration) (*models.GenerationResponse, error) {
	orchestrator, ok := orchestrators[job.Pipeline]
	if !ok || orchestrator == nil {
		return nil, &services.ConfigurationError{Message: fmt.Sprintf("Generation pipeline %s is not configured", job.Pipeline)}
	}
	var req models.GenerationRequest
	if err := json.Unmarshal([]byte(job.RequestJSON), &req); err != nil {
		return nil, &services.ValidationError{Message: fmt.Sprintf("Invalid job request: %v", err)}
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	return orchestrator.Generate(services.WithRequestID(ctx, fmt.Sprintf("job-%d", job.ID)), req)
}

// failureOf splits err into the job's error message and per-variation details.
func failureOf(err error) (string, []string) {
	var aggregate *services.AggregateFailure
	if errors.As(err, &aggregate) {
		return aggregate.Message, aggregate.Details
	}
	return err.Error(), nil
}

const TypeExpireStaleJobs = "jobs:expire_stale"

// staleJobMessage is stored on jobs the sweep gives up on.
const staleJobMessage = "Generation did not finish in time, please try again"

func NewExpireStaleJobsTask() *asynq.Task {
	return asynq.NewTask(TypeExpireStaleJobs, nil)
}

// HandleExpireStaleJobsTask fails pending or generating jobs that have not been touched for olderThan,
// e.g. when a worker died mid-job. It returns the number of expired jobs.
func HandleExpireStaleJobsTask(ctx context.Context, db *gorm.DB, olderThan time.Duration, logger *zap.Logger) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := db.WithContext(ctx).Model(&models.GenerationJob{}).
		Where("status IN ? AND updated_at < ?", []string{models.JobStatusPending, models.JobStatusGenerating}, cutoff).
		Updates(map[string]interface{}{
			"status":        models.JobStatusFailed,
			"error_message": staleJobMessage,
			"request_json":  "",
		})
	if result.Error != nil {
		sentry.CaptureException(result.Error)
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Warn("expired stale generation jobs", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
