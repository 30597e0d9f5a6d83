package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/scoring"
)

// Job types accepted on the jobs subscription.
const (
	JobFleetOptimize = "fleet_optimize"
	JobHealthCheck   = "health_check"
)

// ErrUnknownJob is returned by Handle for unrecognised job types.
var ErrUnknownJob = errors.New("unknown job type")

// JobMessage represents a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`
	// Date is an optional YYYY-MM-DD service day for fleet_optimize.
	// The configured horizon starting today is planned when empty.
	Date string `json:"date,omitempty"`
}

// JobHandler executes decoded job messages.
type JobHandler struct {
	job    *PlanningJob
	logger zerolog.Logger
}

// NewJobHandler creates a handler that runs jobs on job.
func NewJobHandler(job *PlanningJob, logger zerolog.Logger) *JobHandler {
	return &JobHandler{job: job, logger: logger}
}

// Handle decodes and runs one message body. Malformed bodies and unknown
// job types wrap ErrUnknownJob; they will never succeed on redelivery.
func (h *JobHandler) Handle(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownJob, err)
	}

	switch msg.JobType {
	case JobFleetOptimize:
		return h.handleFleetOptimize(ctx, msg)
	case JobHealthCheck:
		return h.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
	}
}

func (h *JobHandler) handleFleetOptimize(ctx context.Context, msg JobMessage) error {
	var result *PlanningResult
	if msg.Date != "" {
		date, err := scoring.ParseDate("date", msg.Date)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnknownJob, err)
		}
		result = h.job.RunFor(ctx, date)
	} else {
		result = h.job.Run(ctx)
	}

	if result.Failed > 0 {
		return fmt.Errorf("fleet planning failed for %d/%d days: %s",
			result.Failed, result.TotalDays, result.Errors[0].Error)
	}
	return nil
}

func (h *JobHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	if err := h.job.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	jobs             *JobHandler
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Jobs             *JobHandler
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		jobs:             cfg.Jobs,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	err := h.jobs.Handle(ctx, msg.Data)
	switch {
	case errors.Is(err, ErrUnknownJob):
		logger.Warn().Err(err).Msg("discarding message")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}
