package fleet

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/traininduction/traininduction/internal/scoring"
)

//go:embed seed.yaml
var defaultSeed []byte

// seedFile is the YAML layout of a fleet file.
type seedFile struct {
	Trains []seedTrain `yaml:"trains"`
}

type seedTrain struct {
	ID                string            `yaml:"id"`
	SetSize           int               `yaml:"setSize"`
	CurrentMileage    float64           `yaml:"currentMileage"`
	TargetMileage     float64           `yaml:"targetMileage"`
	InMaintenanceHold bool              `yaml:"inMaintenanceHold"`
	Certificates      []seedCertificate `yaml:"certificates"`
	JobCards          []string          `yaml:"jobCards"`
	OpenJobCards      *int              `yaml:"openJobCards"`
	Branding          *seedBranding     `yaml:"branding"`
	LastCleaned       string            `yaml:"lastCleaned"`
	StablingBay       string            `yaml:"stablingBay"`
}

type seedCertificate struct {
	Category  string `yaml:"category"`
	ExpiresOn string `yaml:"expiresOn"`
}

type seedBranding struct {
	Advertiser     string  `yaml:"advertiser"`
	RequiredHours  float64 `yaml:"requiredHours"`
	CompletedHours float64 `yaml:"completedHours"`
}

// DefaultFleet returns the embedded five-train fleet.
func DefaultFleet() ([]scoring.TrainRecord, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed decodes a YAML fleet file. Dates must be YYYY-MM-DD.
// When openJobCards is omitted it defaults to the number of listed job cards.
func LoadSeed(r io.Reader) ([]scoring.TrainRecord, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fleet seed: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Trains))
	trains := make([]scoring.TrainRecord, 0, len(f.Trains))
	for i, st := range f.Trains {
		if st.ID == "" {
			return nil, fmt.Errorf("fleet seed: train %d has no id", i)
		}
		if _, dup := seen[st.ID]; dup {
			return nil, fmt.Errorf("fleet seed: duplicate train %s", st.ID)
		}
		seen[st.ID] = struct{}{}

		t, err := st.toRecord()
		if err != nil {
			return nil, fmt.Errorf("fleet seed: train %s: %w", st.ID, err)
		}
		trains = append(trains, t)
	}
	return trains, nil
}

func (st seedTrain) toRecord() (scoring.TrainRecord, error) {
	t := scoring.TrainRecord{
		ID:                st.ID,
		SetSize:           st.SetSize,
		JobCards:          st.JobCards,
		CurrentMileage:    st.CurrentMileage,
		TargetMileage:     st.TargetMileage,
		StablingBay:       st.StablingBay,
		InMaintenanceHold: st.InMaintenanceHold,
	}

	t.OpenJobCards = len(st.JobCards)
	if st.OpenJobCards != nil {
		t.OpenJobCards = *st.OpenJobCards
	}

	for _, c := range st.Certificates {
		expires, err := scoring.ParseDate("certificates."+c.Category, c.ExpiresOn)
		if err != nil {
			return scoring.TrainRecord{}, err
		}
		t.Certificates = append(t.Certificates, scoring.Certificate{Category: c.Category, Expires: expires})
	}

	if st.Branding != nil {
		t.Branding = &scoring.BrandingContract{
			Advertiser:     st.Branding.Advertiser,
			RequiredHours:  st.Branding.RequiredHours,
			CompletedHours: st.Branding.CompletedHours,
		}
	}

	lastCleaned, err := scoring.ParseOptionalDate("lastCleaned", st.LastCleaned)
	if err != nil {
		return scoring.TrainRecord{}, err
	}
	t.LastCleaned = lastCleaned

	return t, nil
}
