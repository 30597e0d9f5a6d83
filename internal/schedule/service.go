package schedule

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/events"
	"github.com/traininduction/traininduction/internal/scoring"
)

// timeHHMMRegex validates HH:mm format.
var timeHHMMRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// ValidTime reports whether s is an HH:mm time of day.
func ValidTime(s string) bool {
	return timeHHMMRegex.MatchString(s)
}

// Scorer evaluates a stored train.
type Scorer interface {
	ScoreTrain(ctx context.Context, trainID string, oc scoring.OperationalContext) (scoring.Result, error)
}

// ServiceConfig holds the dependencies of a Service.
type ServiceConfig struct {
	Repository Repository
	Scorer     Scorer
	// Publisher receives schedule.logged events. Nil disables publishing.
	Publisher events.Publisher
	Logger    zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service provides schedule operations.
type Service struct {
	repo      Repository
	scorer    Scorer
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new schedule service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Publisher == nil {
		cfg.Publisher = events.NoopPublisher{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		repo:      cfg.Repository,
		scorer:    cfg.Scorer,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Log scores the requested train on the requested date and time, stores the
// decision and publishes a schedule.logged event.
// Scorer errors, such as an unknown train, are returned unchanged.
func (s *Service) Log(ctx context.Context, input *models.ScheduleCreateRequest) (*models.ScheduleEntry, error) {
	fieldErrors, date := s.validateCreateInput(input)
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	oc := scoring.OperationalContext{Date: date, Time: input.Time}
	result, err := s.scorer.ScoreTrain(ctx, input.TrainID, oc)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:             "sch_" + uuid.New().String(),
		TrainID:        input.TrainID,
		Station:        strings.TrimSpace(input.Station),
		Route:          strings.TrimSpace(input.Route),
		Date:           date,
		Time:           input.Time,
		Score:          result.Score,
		Breakdown:      result.Breakdown,
		Conflicts:      result.ConflictMessages(),
		Recommendation: result.Recommendation,
		Status:         StatusFor(result.Score),
		CreatedAt:      s.now().UTC(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	apiEntry := toAPIEntry(entry)

	// The entry is already stored; a lost event is logged, not returned.
	if err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeScheduleLogged,
		Subject:    entry.ID,
		OccurredAt: entry.CreatedAt,
		Data:       apiEntry,
	}); err != nil {
		s.logger.Warn().
			Err(err).
			Str("schedule_id", entry.ID).
			Msg("failed to publish schedule event")
	}

	s.logger.Info().
		Str("schedule_id", entry.ID).
		Str("train_id", entry.TrainID).
		Int("score", entry.Score).
		Str("status", string(entry.Status)).
		Msg("schedule logged")

	return &apiEntry, nil
}

// Get retrieves an entry by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toAPIEntry(entry)
	return &result, nil
}

// List returns logged entries in creation order.
func (s *Service) List(ctx context.Context, opts ListOptions) (*models.ScheduleList, error) {
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	items := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, toAPIEntry(e))
	}
	return &models.ScheduleList{Items: items, Meta: models.ListMeta{Count: len(items)}}, nil
}

// validateCreateInput validates the create schedule input and returns the parsed date.
func (s *Service) validateCreateInput(input *models.ScheduleCreateRequest) ([]models.FieldError, civil.Date) {
	var errs []models.FieldError

	required := []struct {
		field string
		value string
	}{
		{"trainId", input.TrainID},
		{"station", input.Station},
		{"route", input.Route},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, models.FieldError{Field: r.field, Message: "is required", Code: "REQUIRED"})
		}
	}

	var date civil.Date
	if input.Date == "" {
		errs = append(errs, models.FieldError{Field: "date", Message: "is required", Code: "REQUIRED"})
	} else if d, err := scoring.ParseDate("date", input.Date); err != nil {
		errs = append(errs, models.FieldError{Field: "date", Message: "must be in YYYY-MM-DD format", Code: "FORMAT"})
	} else {
		date = d
	}

	if input.Time == "" {
		errs = append(errs, models.FieldError{Field: "time", Message: "is required", Code: "REQUIRED"})
	} else if !ValidTime(input.Time) {
		errs = append(errs, models.FieldError{Field: "time", Message: "must be in HH:mm format", Code: "FORMAT"})
	}

	return errs, date
}

// toAPIEntry converts a domain Entry to an API ScheduleEntry.
func toAPIEntry(e *Entry) models.ScheduleEntry {
	conflicts := e.Conflicts
	if conflicts == nil {
		conflicts = []string{}
	}
	return models.ScheduleEntry{
		ID:             e.ID,
		TrainID:        e.TrainID,
		Station:        e.Station,
		Route:          e.Route,
		Date:           scoring.FormatDate(e.Date),
		Time:           e.Time,
		Score:          e.Score,
		Breakdown:      e.Breakdown,
		Conflicts:      conflicts,
		Recommendation: models.NewRecommendation(e.Recommendation),
		Status:         string(e.Status),
		CreatedAt:      models.Timestamp(e.CreatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
