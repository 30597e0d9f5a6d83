// Package worker runs background fleet planning for the induction service.
package worker

import (
	"time"

	"cloud.google.com/go/civil"
)

// PlanningConfig holds configuration for the fleet planning job.
type PlanningConfig struct {
	// HorizonDays is the number of consecutive service days planned per run,
	// starting today.
	// Default: 1
	HorizonDays int

	// Concurrency is the number of days optimized in parallel.
	// Default: 2
	Concurrency int

	// Timeout is the timeout for each day's optimization.
	// Default: 30 seconds
	Timeout time.Duration

	// Now supplies the current time.
	// Default: time.Now
	Now func() time.Time
}

// DefaultPlanningConfig returns the default planning configuration.
func DefaultPlanningConfig() PlanningConfig {
	return PlanningConfig{
		HorizonDays: 1,
		Concurrency: 2,
		Timeout:     30 * time.Second,
		Now:         time.Now,
	}
}

func (c *PlanningConfig) setDefaults() {
	d := DefaultPlanningConfig()
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Now == nil {
		c.Now = d.Now
	}
}

// Dates returns the service days planned by a run started on today.
func (c PlanningConfig) Dates(today civil.Date) []civil.Date {
	days := c.HorizonDays
	if days <= 0 {
		days = 1
	}
	dates := make([]civil.Date, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, today.AddDays(i))
	}
	return dates
}
