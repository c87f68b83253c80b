package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"selfieapi/models"
	"selfieapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type JobsController struct {
	Queue  tasks.Enqueuer
	Logger *zap.Logger
}

func (controller *JobsController) JobRoutes(g *echo.Group) {
	g.POST("", controller.CreateJob)
	g.GET("/:id", controller.GetJob)
}

// CreateJob stores a pending GenerationJob and hands it to the worker.
func (controller *JobsController) CreateJob(c echo.Context) error {
	var req models.JobIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		if req.Selfie == "" || req.Prompt == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Missing required parameters: selfie and prompt"})
		}
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "pipeline must be one of: gemini, byteplus"})
	}
	db := dbFrom(c)
	if db == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorOut{Error: "Job store not configured"})
	}
	if controller.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorOut{Error: "Service is not available, please try again a bit later"})
	}

	raw, err := json.Marshal(req.GenerationRequest)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
	}
	job := models.GenerationJob{
		Pipeline:    req.Pipeline,
		Status:      models.JobStatusPending,
		RequestJSON: string(raw),
	}
	if err := db.WithContext(c.Request().Context()).Create(&job).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Failed to create job, please try again"})
	}

	task, err := tasks.NewGenerateImagesTask(job.ID)
	if err == nil {
		var info *asynq.TaskInfo
		info, err = controller.Queue.Enqueue(task, asynq.MaxRetry(0), asynq.Queue(tasks.QueueGenerate))
		if err == nil {
			controller.Logger.Info("generation job queued", zap.Uint("job_id", job.ID), zap.String("task_id", info.ID))
		}
	}
	if err != nil {
		sentry.CaptureException(err)
		message := "Sorry, could not start generation, please try again"
		markErr := db.WithContext(context.WithoutCancel(c.Request().Context())).Model(&job).
			Updates(map[string]interface{}{"status": models.JobStatusFailed, "error_message": message}).Error
		if markErr != nil {
			sentry.CaptureException(markErr)
			controller.Logger.Error("failed to mark job as failed", zap.Uint("job_id", job.ID), zap.Error(markErr))
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: message, Details: err.Error()})
	}

	return c.JSON(http.StatusAccepted, models.JobCreatedOut{JobID: job.ID, Status: job.Status})
}

func (controller *JobsController) GetJob(c echo.Context) error {
	db := dbFrom(c)
	if db == nil {
		return c.JSON(http.StatusServiceUnavailable, models.ErrorOut{Error: "Job store not configured"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid job ID"})
	}
	var job models.GenerationJob
	err = db.WithContext(c.Request().Context()).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, models.ErrorOut{Error: "Job not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Failed to get job"})
	}
	if job.Images == nil {
		job.Images = []string{}
	}
	return c.JSON(http.StatusOK, job)
}
