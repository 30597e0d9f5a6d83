package scoring

import (
	"fmt"
	"math"
	"time"
)

// Weights defines the contribution of each dimension to the aggregate score.
// They must sum to 1.0.
type Weights struct {
	Fitness  float64 `json:"fitness"`
	JobCard  float64 `json:"jobcard"`
	Branding float64 `json:"branding"`
	Mileage  float64 `json:"mileage"`
	Cleaning float64 `json:"cleaning"`
	Stabling float64 `json:"stabling"`
}

// DefaultWeights returns the standard induction weighting.
func DefaultWeights() Weights {
	return Weights{
		Fitness:  0.25,
		JobCard:  0.20,
		Branding: 0.15,
		Mileage:  0.15,
		Cleaning: 0.15,
		Stabling: 0.10,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Fitness + w.JobCard + w.Branding + w.Mileage + w.Cleaning + w.Stabling
}

// Validate checks that weights are non-negative and sum to 1.0 (±0.001).
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"fitness":  w.Fitness,
		"jobcard":  w.JobCard,
		"branding": w.Branding,
		"mileage":  w.Mileage,
		"cleaning": w.Cleaning,
		"stabling": w.Stabling,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %f", name, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	return nil
}

// Config holds the tables and thresholds the engine evaluates against.
type Config struct {
	Weights Weights

	// BayEfficiency maps stabling bay identifiers to an efficiency in [0, 1].
	BayEfficiency map[string]float64
	// UnknownBayEfficiency applies to bays missing from BayEfficiency.
	UnknownBayEfficiency float64
	// HoldStablingScore applies to trains in maintenance hold regardless of bay.
	HoldStablingScore float64

	// NoAdvertiser is the advertiser name that marks an empty branding contract.
	NoAdvertiser string

	// JobCardSaturation is the open job card count at which the soft penalty reaches zero.
	JobCardSaturation int
	// JobCardConflictThreshold raises a conflict when open job cards exceed it.
	JobCardConflictThreshold int

	// ConflictPenalty is subtracted from the weighted sum once per conflict.
	ConflictPenalty float64

	// Clock supplies the evaluation date when the context omits one.
	// Defaults to time.Now.
	Clock func() time.Time
}

// DefaultBayEfficiency returns the efficiency table for the standard depot layout.
func DefaultBayEfficiency() map[string]float64 {
	return map[string]float64{
		"A1": 0.9,
		"A2": 0.8,
		"A3": 0.85,
		"B1": 0.9,
		"B2": 0.7,
		"B3": 0.75,
	}
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:                  DefaultWeights(),
		BayEfficiency:            DefaultBayEfficiency(),
		UnknownBayEfficiency:     0.6,
		HoldStablingScore:        0.2,
		NoAdvertiser:             "None",
		JobCardSaturation:        5,
		JobCardConflictThreshold: 2,
		ConflictPenalty:          0.1,
		Clock:                    time.Now,
	}
}

// Validate checks the configuration for values the engine cannot evaluate with.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for bay, eff := range c.BayEfficiency {
		if eff < 0 || eff > 1 {
			return fmt.Errorf("bay %s efficiency %f outside [0, 1]", bay, eff)
		}
	}
	if c.UnknownBayEfficiency < 0 || c.UnknownBayEfficiency > 1 {
		return fmt.Errorf("unknown bay efficiency %f outside [0, 1]", c.UnknownBayEfficiency)
	}
	if c.HoldStablingScore < 0 || c.HoldStablingScore > 1 {
		return fmt.Errorf("hold stabling score %f outside [0, 1]", c.HoldStablingScore)
	}
	if c.JobCardSaturation <= 0 {
		return fmt.Errorf("job card saturation must be positive, got %d", c.JobCardSaturation)
	}
	if c.JobCardConflictThreshold < 0 {
		return fmt.Errorf("job card conflict threshold must not be negative, got %d", c.JobCardConflictThreshold)
	}
	if c.ConflictPenalty < 0 {
		return fmt.Errorf("conflict penalty must not be negative, got %f", c.ConflictPenalty)
	}
	return nil
}
