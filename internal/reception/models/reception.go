package models

import (
	"time"

	consultModels "github.com/phongkham/phongkham-backend/internal/consultation/models"
)

// ReceptionPatient is a checked-in visitor waiting for a consultation.
type ReceptionPatient struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Age           string `json:"age"`
	Gender        string `json:"gender"`
	Address       string `json:"address,omitempty"`
	Weight        string `json:"weight"`
	ReceptionDate string `json:"receptionDate"`
}

func (r ReceptionPatient) Time() time.Time {
	return consultModels.ParseTime(r.ReceptionDate)
}
