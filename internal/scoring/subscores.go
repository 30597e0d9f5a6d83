package scoring

import (
	"math"

	"cloud.google.com/go/civil"
)

// Cleaning freshness tiers.
const (
	cleaningFreshDays    = 3
	cleaningAcceptedDays = 7

	cleaningFreshScore    = 1.0
	cleaningAcceptedScore = 0.8
	cleaningStaleScore    = 0.4

	// cleaningUnknownScore applies when no cleaning date is recorded.
	cleaningUnknownScore = 0.8
)

// CertificateScore returns the fraction of certificates expiring strictly after ref.
// An empty set scores 0.
func CertificateScore(certs []Certificate, ref civil.Date) float64 {
	if len(certs) == 0 {
		return 0
	}
	valid := 0
	for _, c := range certs {
		if c.Expires.After(ref) {
			valid++
		}
	}
	return float64(valid) / float64(len(certs))
}

// JobCardScore applies a linear penalty reaching zero at saturation open cards.
func JobCardScore(open, saturation int) float64 {
	return clamp01(1 - float64(open)/float64(saturation))
}

// BrandingScore returns contract completion, capped at 1.0.
// No contract, the noAdvertiser sentinel, or zero required hours score 1.0.
func BrandingScore(contract *BrandingContract, noAdvertiser string) float64 {
	if contract == nil || contract.Advertiser == noAdvertiser {
		return 1.0
	}
	if contract.RequiredHours == 0 {
		return 1.0
	}
	return clamp01(math.Min(1.0, contract.CompletedHours/contract.RequiredHours))
}

// MileageScore rewards mileage close to target, symmetric in both directions.
// A zero target scores 1.0.
func MileageScore(current, target float64) float64 {
	if target == 0 {
		return 1.0
	}
	deviation := math.Abs(current-target) / target
	return clamp01(1 - deviation)
}

// CleaningScore maps days since the last cleaning to a three-tier staircase:
// up to 3 days scores 1.0, up to 7 days 0.8, anything older 0.4.
// A missing date on either side scores 0.8.
func CleaningScore(lastCleaned, ref civil.Date) float64 {
	if lastCleaned.IsZero() || ref.IsZero() {
		return cleaningUnknownScore
	}
	days := ref.DaysSince(lastCleaned)
	switch {
	case days <= cleaningFreshDays:
		return cleaningFreshScore
	case days <= cleaningAcceptedDays:
		return cleaningAcceptedScore
	default:
		return cleaningStaleScore
	}
}

// StablingScore looks up the bay efficiency. Held trains score holdScore,
// unknown bays score unknownScore.
func StablingScore(bay string, inHold bool, table map[string]float64, unknownScore, holdScore float64) float64 {
	if inHold {
		return holdScore
	}
	if eff, ok := table[bay]; ok {
		return clamp01(eff)
	}
	return unknownScore
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// percent converts a [0, 1] value to an integer percentage, rounding half to even.
func percent(v float64) int {
	return int(math.RoundToEven(clamp01(v) * 100))
}
