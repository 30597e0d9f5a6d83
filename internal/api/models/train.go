package models

import "github.com/traininduction/traininduction/internal/scoring"

// Train is the API view of a fleet record.
type Train struct {
	TrainID        string            `json:"trainId"`
	SetSize        int               `json:"setSize"`
	InIBL          bool              `json:"inIBL"`
	Certificates   []Certificate     `json:"fitnessCerts"`
	JobCards       []string          `json:"jobCards"`
	OpenJobCards   int               `json:"openJobCards"`
	Branding       *BrandingContract `json:"brandingContract,omitempty"`
	CurrentMileage float64           `json:"currentMileage"`
	TargetMileage  float64           `json:"mileageTarget"`
	LastCleaning   *string           `json:"lastCleaning,omitempty"`
	StablingBay    string            `json:"stablingBay"`
}

// Certificate is a fitness certificate and its expiry date.
type Certificate struct {
	Category  string `json:"category"`
	ExpiresOn string `json:"expiresOn"`
}

// BrandingContract is an advertiser's service-hour obligation.
type BrandingContract struct {
	Advertiser     string  `json:"advertiser"`
	HoursRequired  float64 `json:"hoursRequired"`
	HoursCompleted float64 `json:"hoursCompleted"`
}

// TrainList is the response of the fleet listing.
type TrainList struct {
	Items []Train  `json:"items"`
	Meta  ListMeta `json:"meta"`
}

// NewTrain converts a fleet record.
func NewTrain(t scoring.TrainRecord) Train {
	out := Train{
		TrainID:        t.ID,
		SetSize:        t.SetSize,
		InIBL:          t.InMaintenanceHold,
		Certificates:   make([]Certificate, 0, len(t.Certificates)),
		JobCards:       t.JobCards,
		OpenJobCards:   t.OpenJobCards,
		CurrentMileage: t.CurrentMileage,
		TargetMileage:  t.TargetMileage,
		StablingBay:    t.StablingBay,
	}
	if out.JobCards == nil {
		out.JobCards = []string{}
	}
	for _, c := range t.Certificates {
		out.Certificates = append(out.Certificates, Certificate{
			Category:  c.Category,
			ExpiresOn: scoring.FormatDate(c.Expires),
		})
	}
	if t.Branding != nil {
		out.Branding = &BrandingContract{
			Advertiser:     t.Branding.Advertiser,
			HoursRequired:  t.Branding.RequiredHours,
			HoursCompleted: t.Branding.CompletedHours,
		}
	}
	if !t.LastCleaned.IsZero() {
		lc := scoring.FormatDate(t.LastCleaned)
		out.LastCleaning = &lc
	}
	return out
}

// NewTrainList converts a fleet listing.
func NewTrainList(trains []scoring.TrainRecord) TrainList {
	items := make([]Train, 0, len(trains))
	for _, t := range trains {
		items = append(items, NewTrain(t))
	}
	return TrainList{Items: items, Meta: ListMeta{Count: len(items)}}
}
