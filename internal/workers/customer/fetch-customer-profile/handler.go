// internal/workers/customer/fetch-customer-profile/handler.go
package fetchcustomerprofile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "crediflow/internal/common/errors"
	"crediflow/internal/common/logger"
	"crediflow/internal/common/metrics"
	"crediflow/internal/common/observability"
	"crediflow/internal/common/validation"
	"crediflow/internal/models"
	"crediflow/pkg/registry"
)

const (
	TaskType = registry.TaskFetchCustomerProfile
)

type Handler struct {
	config     *Config
	store      ProfileFinder
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store ProfileFinder, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      store,
		obs:        obs,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordToolCall(ctx, TaskType, output.ToolResponse.Status, time.Since(start))
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInputInvalidError(err)
	}

	result, err := validation.ValidateInput(variables, h.config.InputSchema)
	if err != nil {
		return nil, apperrors.NewInputInvalidError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInputInvalidError(fmt.Errorf("input validation failed: %s", result.Summary()))
	}

	phone, _ := variables["phoneNumber"].(string)
	return &Input{PhoneNumber: phone}, nil
}

// execute turns a store answer into a tool response. A missing customer or
// an unreadable record is a tool-level outcome; only store failures are
// returned as errors so the job is retried.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	phone := strings.TrimSpace(input.PhoneNumber)
	if phone == "" {
		return nil, apperrors.NewInputInvalidError(errors.New("phoneNumber is required"))
	}

	profile, err := h.store.Find(ctx, phone)
	switch {
	case err == nil:
		return &Output{ToolResponse: models.NewSuccessResponse("Customer found", profile.Document())}, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return &Output{ToolResponse: models.NewErrorResponse("Customer not found", map[string]interface{}{
			models.FieldPhoneNumber: phone,
		})}, nil
	case errors.Is(err, apperrors.ErrInvalid):
		h.logger.Warn("stored customer record is invalid", map[string]interface{}{
			"phoneNumber": phone,
			"error":       err,
		})
		return &Output{ToolResponse: models.NewNeedsReviewResponse("Customer record is incomplete and needs manual review", map[string]interface{}{
			models.FieldPhoneNumber: phone,
		})}, nil
	default:
		return nil, err
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordToolCall(ctx, TaskType, "failed", time.Since(start))
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
