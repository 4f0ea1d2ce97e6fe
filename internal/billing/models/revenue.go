package models

import (
	"time"

	consultModels "github.com/phongkham/phongkham-backend/internal/consultation/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
)

const (
	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// RevenueRecord is the invoice tied to one patient visit. The prescription
// snapshot is denormalized so reports can recompute drug capital after the
// patient record changes or disappears.
type RevenueRecord struct {
	ID                string              `json:"id"`
	PatientID         string              `json:"patientId"`
	PatientName       string              `json:"patientName"`
	ConsultationFee   float64             `json:"consultationFee"`
	DrugCost          float64             `json:"drugCost"`
	OtherServicesCost float64             `json:"otherServicesCost"`
	Total             float64             `json:"total"`
	PaymentStatus     string              `json:"paymentStatus"`
	Date              string              `json:"date"`
	Prescription      []prescription.Item `json:"prescription,omitempty"`
}

func (r RevenueRecord) Time() time.Time {
	return consultModels.ParseTime(r.Date)
}

// PaymentInfo is the billing part of a consultation save.
type PaymentInfo struct {
	ConsultationFee   float64 `json:"consultationFee"`
	DrugCost          float64 `json:"drugCost"`
	OtherServicesCost float64 `json:"otherServicesCost"`
	PaymentStatus     string  `json:"paymentStatus"`
}
