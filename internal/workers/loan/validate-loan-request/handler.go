// internal/workers/loan/validate-loan-request/handler.go
package validateloanrequest

import (
	"context"
	"errors"
	"fmt"
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
	TaskType = registry.TaskValidateLoanRequest
)

type Handler struct {
	config     *Config
	store      ProfileFinder
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the handler. store may be nil when
// RequireKnownCustomer is off.
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

	req, _ := variables["loanRequest"].(map[string]interface{})
	return &Input{LoanRequest: req}, nil
}

// execute reports a malformed request or an unknown applicant as a tool
// response. No credit decision is made here.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.LoanRequest == nil {
		return nil, apperrors.NewInputInvalidError(errors.New("loanRequest is required"))
	}

	req, err := models.LoanRequestFromMap(input.LoanRequest)
	if err != nil {
		var vErr *models.ValidationError
		fields := []string{}
		if errors.As(err, &vErr) {
			fields = vErr.Fields()
		}
		h.logger.Info("loan request rejected", map[string]interface{}{
			"fields": fields,
		})
		return &Output{ToolResponse: models.NewErrorResponse(
			apperrors.NewLoanRequestInvalidError(err).Message,
			map[string]interface{}{"invalidFields": fields, "details": err.Error()},
		)}, nil
	}

	data := req.Document()
	if h.config.RequireKnownCustomer && h.store != nil {
		profile, err := h.store.Find(ctx, req.PhoneNumber)
		switch {
		case err == nil:
			data[models.FieldCustID] = profile.CustID
		case errors.Is(err, apperrors.ErrNotFound):
			return &Output{ToolResponse: models.NewErrorResponse("Customer not found", map[string]interface{}{
				models.FieldPhoneNumber: req.PhoneNumber,
			})}, nil
		case errors.Is(err, apperrors.ErrInvalid):
			return &Output{ToolResponse: models.NewNeedsReviewResponse(
				"Customer record is incomplete and needs manual review", data)}, nil
		default:
			return nil, err
		}
	}

	return &Output{ToolResponse: models.NewSuccessResponse("Loan request is well-formed", data)}, nil
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
