package scoring

import (
	"fmt"
	"strings"
	"unicode"

	"cloud.google.com/go/civil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ConflictKind classifies a blocking conflict.
type ConflictKind string

const (
	ConflictCertificateExpired ConflictKind = "CERTIFICATE_EXPIRED"
	ConflictExcessJobCards     ConflictKind = "EXCESS_JOB_CARDS"
	ConflictMaintenanceHold    ConflictKind = "MAINTENANCE_HOLD"
)

// Conflict is a hard-rule violation that blocks induction.
type Conflict struct {
	Kind ConflictKind
	// Category is set for certificate conflicts.
	Category string
	Message  string
}

func (c Conflict) String() string {
	return c.Message
}

// DetectConflicts lists the hard-rule violations for rec on ref: expired
// certificates in record order, then excess job cards, then maintenance hold.
func (e *Engine) DetectConflicts(rec TrainRecord, ref civil.Date) []Conflict {
	var conflicts []Conflict

	for _, cert := range rec.Certificates {
		if !cert.Expires.After(ref) {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictCertificateExpired,
				Category: cert.Category,
				Message:  fmt.Sprintf("%s certificate expired", titleCase(cert.Category)),
			})
		}
	}

	if rec.OpenJobCards > e.cfg.JobCardConflictThreshold {
		conflicts = append(conflicts, Conflict{
			Kind:    ConflictExcessJobCards,
			Message: "Multiple open job cards",
		})
	}

	if rec.InMaintenanceHold {
		conflicts = append(conflicts, Conflict{
			Kind:    ConflictMaintenanceHold,
			Message: "Train in IBL - maintenance required",
		})
	}

	return conflicts
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "rolling_stock" becomes "Rolling_Stock" and
// "RS2b" becomes "Rs2B". Digits and punctuation are kept as they are.
func titleCase(s string) string {
	// cases.Caser is not safe for concurrent use.
	caser := cases.Title(language.English)

	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
			if start < 0 {
				start = i
			}
		default:
			if start >= 0 {
				b.WriteString(caser.String(s[start:i]))
				start = -1
			}
			b.WriteRune(r)
		}
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}
