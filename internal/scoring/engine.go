package scoring

import (
	"fmt"
	"maps"
	"time"

	"cloud.google.com/go/civil"
)

// Engine scores trains against a fixed Config. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine bound to a private copy of it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	cfg.BayEfficiency = maps.Clone(cfg.BayEfficiency)
	if cfg.BayEfficiency == nil {
		cfg.BayEfficiency = map[string]float64{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Engine{cfg: cfg}, nil
}

// MustNewEngine is NewEngine for configurations known to be valid.
func MustNewEngine(cfg Config) *Engine {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Bays returns a copy of the stabling bay efficiency table.
func (e *Engine) Bays() map[string]float64 {
	return maps.Clone(e.cfg.BayEfficiency)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.cfg.Clock()
}

// ReferenceDate resolves the date an evaluation is made against.
func (e *Engine) ReferenceDate(oc OperationalContext) civil.Date {
	if !oc.Date.IsZero() {
		return oc.Date
	}
	return civil.DateOf(e.cfg.Clock())
}

// SubScores computes the six dimension scores for rec on ref.
func (e *Engine) SubScores(rec TrainRecord, ref civil.Date) SubScores {
	return SubScores{
		Fitness:  CertificateScore(rec.Certificates, ref),
		JobCard:  JobCardScore(rec.OpenJobCards, e.cfg.JobCardSaturation),
		Branding: BrandingScore(rec.Branding, e.cfg.NoAdvertiser),
		Mileage:  MileageScore(rec.CurrentMileage, rec.TargetMileage),
		Cleaning: CleaningScore(rec.LastCleaned, ref),
		Stabling: StablingScore(rec.StablingBay, rec.InMaintenanceHold,
			e.cfg.BayEfficiency, e.cfg.UnknownBayEfficiency, e.cfg.HoldStablingScore),
	}
}

// Aggregate combines sub-scores and a conflict count into a score in [0, 100].
// The penalty is applied before clamping; clamping happens before rounding.
func (e *Engine) Aggregate(s SubScores, conflicts int) int {
	w := e.cfg.Weights
	sum := s.Fitness*w.Fitness +
		s.JobCard*w.JobCard +
		s.Branding*w.Branding +
		s.Mileage*w.Mileage +
		s.Cleaning*w.Cleaning +
		s.Stabling*w.Stabling
	sum -= float64(conflicts) * e.cfg.ConflictPenalty
	return percent(sum)
}

// Score evaluates one train. The only failure is a certificate without a
// usable expiry date, reported as a *DateError.
func (e *Engine) Score(rec TrainRecord, oc OperationalContext) (Result, error) {
	if err := validateRecord(rec); err != nil {
		return Result{}, err
	}
	ref := e.ReferenceDate(oc)
	return e.score(rec, ref), nil
}

func (e *Engine) score(rec TrainRecord, ref civil.Date) Result {
	sub := e.SubScores(rec, ref)
	conflicts := e.DetectConflicts(rec, ref)
	score := e.Aggregate(sub, len(conflicts))

	return Result{
		Score: score,
		Breakdown: Breakdown{
			Fitness:  percent(sub.Fitness),
			JobCard:  percent(sub.JobCard),
			Branding: percent(sub.Branding),
			Mileage:  percent(sub.Mileage),
			Cleaning: percent(sub.Cleaning),
			Stabling: percent(sub.Stabling),
		},
		Conflicts:      conflicts,
		Recommendation: Classify(score, conflicts),
	}
}

func validateRecord(rec TrainRecord) error {
	for _, cert := range rec.Certificates {
		if !cert.Expires.IsValid() {
			return &DateError{
				Field: fmt.Sprintf("certificates.%s", cert.Category),
				Value: FormatDate(cert.Expires),
			}
		}
	}
	if !rec.LastCleaned.IsZero() && !rec.LastCleaned.IsValid() {
		return &DateError{Field: "lastCleaned", Value: rec.LastCleaned.String()}
	}
	return nil
}
