package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	billingModels "github.com/phongkham/phongkham-backend/internal/billing/models"
	consultModels "github.com/phongkham/phongkham-backend/internal/consultation/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var (
	ErrMissingColumns = errors.New("tệp CSV thiếu cột bắt buộc (id, name)")
	ErrEmptyFile      = errors.New("tệp CSV không có dữ liệu")
)

// csvHeader is the fixed export column order. Import matches columns by
// name, so reordered files still load.
var csvHeader = []string{
	"id", "name", "age", "gender", "address", "consultationDate",
	"pulse", "bloodPressure", "temperature", "respiratoryRate",
	"symptoms", "diagnosis", "prescription", "tongDoanhThu",
}

type CSVService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
}

func NewCSVService(store *redisstore.Store, logger *zap.Logger) *CSVService {
	return &CSVService{Store: store, Logger: logger}
}

// ExportFilename names the download after the export date.
func ExportFilename(now time.Time) string {
	return "danh-sach-benh-nhan_" + now.Format("2006-01-02") + ".csv"
}

// Export writes every patient as one CSV row. The leading BOM keeps Excel
// from mangling Vietnamese text.
func (s *CSVService) Export(ctx context.Context) ([]byte, error) {
	var patients []consultModels.Patient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyPatients, &patients); err != nil {
		return nil, err
	}
	var revenue []billingModels.RevenueRecord
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyRevenue, &revenue); err != nil {
		return nil, err
	}

	totals := revenueByPatient(revenue)

	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range patients {
		presJSON, err := json.Marshal(p.Prescription)
		if err != nil {
			presJSON = []byte("[]")
		}
		row := []string{
			p.ID, p.Name, p.Age, p.Gender, p.Address, p.ConsultationDate,
			p.Vitals.Pulse, p.Vitals.BloodPressure, p.Vitals.Temperature, p.Vitals.RespiratoryRate,
			p.Symptoms, p.Diagnosis, string(presJSON),
			formatAmount(totals[p.ID]),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportResult reports what an import actually changed.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import loads patient rows from a CSV file. Rows whose id already exists
// are skipped; existing records are never overwritten. A positive
// tongDoanhThu column produces a paid revenue record so imported history
// shows up in reports.
func (s *CSVService) Import(ctx context.Context, file io.Reader) (ImportResult, error) {
	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return ImportResult{}, ErrEmptyFile
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\xEF\xBB\xBF")
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["id"]; !ok {
		return ImportResult{}, ErrMissingColumns
	}
	if _, ok := col["name"]; !ok {
		return ImportResult{}, ErrMissingColumns
	}

	var patients []consultModels.Patient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyPatients, &patients); err != nil {
		return ImportResult{}, err
	}
	var revenue []billingModels.RevenueRecord
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyRevenue, &revenue); err != nil {
		return ImportResult{}, err
	}

	existing := map[string]bool{}
	for _, p := range patients {
		existing[p.ID] = true
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var result ImportResult
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ImportResult{}, fmt.Errorf("đọc tệp CSV thất bại: %w", err)
		}

		id := field(row, "id")
		name := field(row, "name")
		if id == "" || name == "" || existing[id] {
			result.Skipped++
			continue
		}

		p := consultModels.Patient{
			ID:               id,
			Name:             name,
			Age:              field(row, "age"),
			Gender:           field(row, "gender"),
			Address:          field(row, "address"),
			ConsultationDate: field(row, "consultationDate"),
			Vitals: consultModels.Vitals{
				Pulse:           field(row, "pulse"),
				BloodPressure:   field(row, "bloodPressure"),
				Temperature:     field(row, "temperature"),
				RespiratoryRate: field(row, "respiratoryRate"),
			},
			Symptoms:     field(row, "symptoms"),
			Diagnosis:    field(row, "diagnosis"),
			Prescription: decodePrescription(field(row, "prescription")),
		}
		patients = append(patients, p)
		existing[id] = true
		result.Imported++

		if total := parseAmount(field(row, "tongDoanhThu")); total > 0 {
			revenue = append(revenue, syntheticRevenue(p, total))
		}
	}

	if result.Imported > 0 {
		err := s.Store.SetMulti(ctx, map[string]interface{}{
			redisstore.KeyPatients: patients,
			redisstore.KeyRevenue:  revenue,
		})
		if err != nil {
			return ImportResult{}, err
		}
	}
	s.Logger.Info("csv import finished",
		zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return result, nil
}

// decodePrescription tolerates malformed JSON by keeping the row with an
// empty prescription instead of dropping the whole patient.
func decodePrescription(raw string) []prescription.Item {
	if raw == "" {
		return []prescription.Item{}
	}
	var items []prescription.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []prescription.Item{}
	}
	return items
}

func syntheticRevenue(p consultModels.Patient, total float64) billingModels.RevenueRecord {
	date := p.ConsultationDate
	if date == "" {
		date = time.Now().Format(time.RFC3339)
	}
	return billingModels.RevenueRecord{
		ID:                fmt.Sprintf("rev-%s-%d", p.ID, time.Now().UnixMilli()),
		PatientID:         p.ID,
		PatientName:       p.Name,
		OtherServicesCost: total,
		Total:             total,
		PaymentStatus:     billingModels.PaymentPaid,
		Date:              date,
		Prescription:      p.Prescription,
	}
}

func revenueByPatient(records []billingModels.RevenueRecord) map[string]float64 {
	totals := make(map[string]float64, len(records))
	for _, r := range records {
		totals[r.PatientID] += r.Total
	}
	return totals
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseAmount(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
