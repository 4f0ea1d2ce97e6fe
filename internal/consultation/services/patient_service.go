package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	billingModels "github.com/phongkham/phongkham-backend/internal/billing/models"
	"github.com/phongkham/phongkham-backend/internal/consultation/models"
	pharmacyModels "github.com/phongkham/phongkham-backend/internal/pharmacy/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
	receptionModels "github.com/phongkham/phongkham-backend/internal/reception/models"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var (
	ErrNameRequired    = errors.New("vui lòng nhập họ tên bệnh nhân")
	ErrPatientNotFound = errors.New("không tìm thấy bệnh nhân")
)

type PatientService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
}

func NewPatientService(store *redisstore.Store, logger *zap.Logger) *PatientService {
	return &PatientService{Store: store, Logger: logger}
}

// SaveResult reports what one consultation save produced.
type SaveResult struct {
	Patient      models.Patient              `json:"patient"`
	Revenue      billingModels.RevenueRecord `json:"revenue"`
	Created      bool                        `json:"created"`
	NewDiagnosis string                      `json:"newDiagnosis,omitempty"`
}

// Save upserts the patient record, finds-or-creates its revenue record,
// grows the diagnosis master list and removes the originating reception
// entry, all applied as one unit of work.
func (s *PatientService) Save(ctx context.Context, patient models.Patient, pay billingModels.PaymentInfo, receptionID string) (SaveResult, error) {
	if strings.TrimSpace(patient.Name) == "" {
		return SaveResult{}, ErrNameRequired
	}
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	if patient.ConsultationDate == "" {
		patient.ConsultationDate = time.Now().Format(time.RFC3339)
	}
	if patient.Gender == "" {
		patient.Gender = "Nam"
	}
	if pay.PaymentStatus == "" {
		pay.PaymentStatus = billingModels.PaymentUnpaid
	}
	if pay.PaymentStatus != billingModels.PaymentPaid && pay.PaymentStatus != billingModels.PaymentUnpaid {
		return SaveResult{}, fmt.Errorf("trạng thái thanh toán không hợp lệ: %q", pay.PaymentStatus)
	}

	patient.Prescription = prescription.Normalize(patient.Prescription)

	drugs, err := s.loadDrugs(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	// The drug master list is authoritative for cost, whatever the client sent.
	pay.DrugCost = prescription.DrugCost(patient.Prescription, PriceMap(drugs))

	patients, err := s.loadPatients(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	revenue, err := s.loadRevenue(ctx)
	if err != nil {
		return SaveResult{}, err
	}

	docs := map[string]interface{}{}
	result := SaveResult{}

	if added, diagnoses, err := s.addDiagnosis(ctx, patient.Diagnosis); err != nil {
		return SaveResult{}, err
	} else if added {
		result.NewDiagnosis = strings.TrimSpace(patient.Diagnosis)
		docs[redisstore.KeyDiagnoses] = diagnoses
	}

	created := true
	for i := range patients {
		if patients[i].ID == patient.ID {
			patients[i] = patient
			created = false
			break
		}
	}
	if created {
		patients = append(patients, patient)
	}
	sortPatients(patients)
	result.Created = created
	result.Patient = patient

	total := pay.ConsultationFee + pay.DrugCost + pay.OtherServicesCost
	var record *billingModels.RevenueRecord
	for i := range revenue {
		if revenue[i].PatientID == patient.ID {
			record = &revenue[i]
			break
		}
	}
	if record == nil {
		revenue = append(revenue, billingModels.RevenueRecord{
			ID:        fmt.Sprintf("rev-%s-%d", patient.ID, time.Now().UnixMilli()),
			PatientID: patient.ID,
		})
		record = &revenue[len(revenue)-1]
	}
	record.PatientName = patient.Name
	record.ConsultationFee = pay.ConsultationFee
	record.DrugCost = pay.DrugCost
	record.OtherServicesCost = pay.OtherServicesCost
	record.Total = total
	record.PaymentStatus = pay.PaymentStatus
	record.Date = patient.ConsultationDate
	record.Prescription = patient.Prescription
	// Copy before sorting: the sort moves elements and record points into
	// the slice.
	result.Revenue = *record
	sortRevenue(revenue)

	docs[redisstore.KeyPatients] = patients
	docs[redisstore.KeyRevenue] = revenue

	if receptionID != "" {
		queue, err := s.loadReception(ctx)
		if err != nil {
			return SaveResult{}, err
		}
		kept := queue[:0]
		for _, q := range queue {
			if q.ID != receptionID {
				kept = append(kept, q)
			}
		}
		docs[redisstore.KeyReception] = kept
	}

	if err := s.Store.SetMulti(ctx, docs); err != nil {
		return SaveResult{}, err
	}
	s.Logger.Info("consultation saved",
		zap.String("patient_id", patient.ID),
		zap.Bool("created", created),
		zap.Float64("total", total),
	)
	return result, nil
}

// Delete removes the patient and cascades to its revenue records.
func (s *PatientService) Delete(ctx context.Context, patientID string) (models.Patient, error) {
	patients, err := s.loadPatients(ctx)
	if err != nil {
		return models.Patient{}, err
	}
	var deleted *models.Patient
	kept := patients[:0]
	for _, p := range patients {
		if p.ID == patientID {
			cp := p
			deleted = &cp
			continue
		}
		kept = append(kept, p)
	}
	if deleted == nil {
		return models.Patient{}, ErrPatientNotFound
	}

	revenue, err := s.loadRevenue(ctx)
	if err != nil {
		return models.Patient{}, err
	}
	keptRevenue := revenue[:0]
	for _, r := range revenue {
		if r.PatientID != patientID {
			keptRevenue = append(keptRevenue, r)
		}
	}

	if err := s.Store.SetMulti(ctx, map[string]interface{}{
		redisstore.KeyPatients: kept,
		redisstore.KeyRevenue:  keptRevenue,
	}); err != nil {
		return models.Patient{}, err
	}
	s.Logger.Info("patient deleted", zap.String("patient_id", patientID))
	return *deleted, nil
}

// List returns patients newest-first, optionally limited to the retention
// window ("6m", "12m", "24m"; "all" or empty disables) and filtered by a
// case-insensitive name search.
func (s *PatientService) List(ctx context.Context, retention, search string) ([]models.Patient, error) {
	patients, err := s.loadPatients(ctx)
	if err != nil {
		return nil, err
	}
	cutoff, hasCutoff := retentionCutoff(retention, time.Now())
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if hasCutoff && p.ConsultationTime().Before(cutoff) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	sortPatients(out)
	return out, nil
}

func (s *PatientService) Get(ctx context.Context, patientID string) (models.Patient, error) {
	patients, err := s.loadPatients(ctx)
	if err != nil {
		return models.Patient{}, err
	}
	for _, p := range patients {
		if p.ID == patientID {
			return p, nil
		}
	}
	return models.Patient{}, ErrPatientNotFound
}

// identityKey is the history-matching tuple. Two records are the same
// person exactly when this matches; record ids never link visits.
func identityKey(name, age, gender string) string {
	return strings.ToLower(name) + "-" + age + "-" + gender
}

// HistoryPersons lists the distinct persons recorded under a name,
// newest visit first, one representative record per identity tuple.
func (s *PatientService) HistoryPersons(ctx context.Context, name string) ([]models.Patient, error) {
	patients, err := s.loadPatients(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.ToLower(name)
	seen := map[string]bool{}
	var persons []models.Patient
	sortPatients(patients)
	for _, p := range patients {
		if strings.ToLower(p.Name) != name {
			continue
		}
		key := identityKey(p.Name, p.Age, p.Gender)
		if seen[key] {
			continue
		}
		seen[key] = true
		persons = append(persons, p)
	}
	return persons, nil
}

// HistoryForPerson returns every visit of one identity tuple, newest first.
func (s *PatientService) HistoryForPerson(ctx context.Context, name, age, gender string) ([]models.Patient, error) {
	patients, err := s.loadPatients(ctx)
	if err != nil {
		return nil, err
	}
	key := identityKey(name, age, gender)
	var history []models.Patient
	for _, p := range patients {
		if identityKey(p.Name, p.Age, p.Gender) == key {
			history = append(history, p)
		}
	}
	sortPatients(history)
	return history, nil
}

// addDiagnosis grows the diagnosis master list when the (trimmed) diagnosis
// is new, case-insensitively.
func (s *PatientService) addDiagnosis(ctx context.Context, diagnosis string) (bool, []string, error) {
	trimmed := strings.TrimSpace(diagnosis)
	if trimmed == "" {
		return false, nil, nil
	}
	diagnoses, err := s.loadDiagnoses(ctx)
	if err != nil {
		return false, nil, err
	}
	for _, d := range diagnoses {
		if strings.EqualFold(d, trimmed) {
			return false, nil, nil
		}
	}
	diagnoses = append(diagnoses, trimmed)
	sort.Strings(diagnoses)
	return true, diagnoses, nil
}

func retentionCutoff(period string, now time.Time) (time.Time, bool) {
	var months int
	switch period {
	case "6m":
		months = 6
	case "12m":
		months = 12
	case "24m":
		months = 24
	default:
		return time.Time{}, false
	}
	cutoff := now.AddDate(0, -months, 0)
	return time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location()), true
}

// PriceMap projects the drug master list into the lookup the prescription
// engine works with.
func PriceMap(drugs []pharmacyModels.Drug) map[string]prescription.PriceInfo {
	prices := make(map[string]prescription.PriceInfo, len(drugs))
	for _, d := range drugs {
		prices[prescription.PriceKey(d.Name)] = prescription.PriceInfo{Price: d.Price, Unit: d.Unit}
	}
	return prices
}

func sortPatients(patients []models.Patient) {
	sort.SliceStable(patients, func(i, j int) bool {
		return patients[i].ConsultationTime().After(patients[j].ConsultationTime())
	})
}

func sortRevenue(records []billingModels.RevenueRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time().After(records[j].Time())
	})
}

func (s *PatientService) loadPatients(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyPatients, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

func (s *PatientService) loadRevenue(ctx context.Context) ([]billingModels.RevenueRecord, error) {
	var revenue []billingModels.RevenueRecord
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyRevenue, &revenue); err != nil {
		return nil, err
	}
	return revenue, nil
}

func (s *PatientService) loadReception(ctx context.Context) ([]receptionModels.ReceptionPatient, error) {
	var queue []receptionModels.ReceptionPatient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyReception, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (s *PatientService) loadDrugs(ctx context.Context) ([]pharmacyModels.Drug, error) {
	var drugs []pharmacyModels.Drug
	found, err := s.Store.GetJSON(ctx, redisstore.KeyDrugs, &drugs)
	if err != nil {
		return nil, err
	}
	if !found {
		return pharmacyModels.SeedDrugs, nil
	}
	return drugs, nil
}

func (s *PatientService) loadDiagnoses(ctx context.Context) ([]string, error) {
	var diagnoses []string
	found, err := s.Store.GetJSON(ctx, redisstore.KeyDiagnoses, &diagnoses)
	if err != nil {
		return nil, err
	}
	if !found {
		return append([]string(nil), pharmacyModels.SeedDiagnoses...), nil
	}
	return diagnoses, nil
}
