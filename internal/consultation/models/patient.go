package models

import (
	"time"

	"github.com/phongkham/phongkham-backend/internal/prescription"
)

// Vitals recorded at a visit. All free text; the clinic writes values like
// "120/80" or "37.5" directly.
type Vitals struct {
	Pulse           string `json:"pulse"`
	BloodPressure   string `json:"bloodPressure"`
	Temperature     string `json:"temperature"`
	RespiratoryRate string `json:"respiratoryRate"`
	Weight          string `json:"weight,omitempty"`
}

// Patient is one consultation record. The same person accrues one Patient
// per visit; visits are linked only by the (name, age, gender) tuple, never
// by id.
type Patient struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Age              string              `json:"age"`
	Gender           string              `json:"gender"`
	Address          string              `json:"address,omitempty"`
	Vitals           Vitals              `json:"vitals"`
	Symptoms         string              `json:"symptoms"`
	Diagnosis        string              `json:"diagnosis"`
	Prescription     []prescription.Item `json:"prescription"`
	PrescriptionNote string              `json:"prescriptionNote,omitempty"`
	ConsultationDate string              `json:"consultationDate"`
}

// ConsultationTime parses the stored timestamp; zero time on failure so
// malformed dates sort last rather than breaking a listing.
func (p Patient) ConsultationTime() time.Time {
	return ParseTime(p.ConsultationDate)
}

// ParseTime accepts the RFC3339 timestamps the app writes plus the bare
// date form that spreadsheet rows sometimes carry.
func ParseTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
