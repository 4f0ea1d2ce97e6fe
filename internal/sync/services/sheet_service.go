package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	billingModels "github.com/phongkham/phongkham-backend/internal/billing/models"
	consultModels "github.com/phongkham/phongkham-backend/internal/consultation/models"
	"github.com/phongkham/phongkham-backend/internal/prescription"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var scriptURLPrefix = "https://script.google.com/macros/s/"

var (
	ErrBadScriptURL   = errors.New("đường dẫn Web App không hợp lệ, phải bắt đầu bằng https://script.google.com/macros/s/")
	ErrMissingHeaders = errors.New("bảng tính thiếu cột bắt buộc (id, name, consultationDate, symptoms, diagnosis, prescription)")
	ErrNoRemoteData   = errors.New("bảng tính không có dữ liệu")
)

// requiredSheetHeaders must all be present in a pulled sheet. Revenue and
// vitals columns are optional.
var requiredSheetHeaders = []string{"id", "name", "consultationDate", "symptoms", "diagnosis", "prescription"}

// sheetHeader is the column order pushed to the sheet. It mirrors the CSV
// export plus a human-readable prescription column for reading on a phone.
var sheetHeader = []string{
	"id", "name", "age", "gender", "address", "consultationDate",
	"pulse", "bloodPressure", "temperature", "respiratoryRate",
	"symptoms", "diagnosis", "prescription", "prescription_vietnamese", "tongDoanhThu",
}

type SheetService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
	client *resty.Client
}

func NewSheetService(store *redisstore.Store, logger *zap.Logger) *SheetService {
	client := resty.New().
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &SheetService{Store: store, Logger: logger, client: client}
}

type pushPayload struct {
	Action string     `json:"action"`
	Data   [][]string `json:"data"`
}

// PushResult echoes what the Apps Script endpoint reported.
type PushResult struct {
	RowsAdded   int `json:"rowsAdded"`
	RowsUpdated int `json:"rowsUpdated"`
	TotalRows   int `json:"totalRows"`
}

type pushResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	RowsAdded   int    `json:"rowsAdded"`
	RowsUpdated int    `json:"rowsUpdated"`
	TotalRows   int    `json:"totalRows"`
}

type pullResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Headers []string   `json:"headers"`
	Data    [][]string `json:"data"`
}

// Push uploads every local patient to the sheet. The remote script merges
// by id, so pushing never deletes remote rows.
func (s *SheetService) Push(ctx context.Context, webAppURL string) (PushResult, error) {
	if err := validateScriptURL(webAppURL); err != nil {
		return PushResult{}, err
	}

	var patients []consultModels.Patient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyPatients, &patients); err != nil {
		return PushResult{}, err
	}
	var revenue []billingModels.RevenueRecord
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyRevenue, &revenue); err != nil {
		return PushResult{}, err
	}
	totals := revenueByPatient(revenue)

	rows := make([][]string, 0, len(patients)+1)
	rows = append(rows, sheetHeader)
	for _, p := range patients {
		presJSON, err := json.Marshal(p.Prescription)
		if err != nil {
			presJSON = []byte("[]")
		}
		rows = append(rows, []string{
			p.ID, p.Name, p.Age, p.Gender, p.Address, p.ConsultationDate,
			p.Vitals.Pulse, p.Vitals.BloodPressure, p.Vitals.Temperature, p.Vitals.RespiratoryRate,
			p.Symptoms, p.Diagnosis, string(presJSON),
			prescription.InstructionText(p.Prescription),
			formatAmount(totals[p.ID]),
		})
	}

	var result pushResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(pushPayload{Action: "sync", Data: rows}).
		SetResult(&result).
		Post(webAppURL)
	if err != nil {
		return PushResult{}, fmt.Errorf("không thể kết nối Google Sheets: %w", err)
	}
	if resp.IsError() {
		return PushResult{}, fmt.Errorf("Google Sheets trả về lỗi %d", resp.StatusCode())
	}
	if result.Status != "success" {
		msg := result.Message
		if msg == "" {
			msg = "đồng bộ thất bại"
		}
		return PushResult{}, errors.New(msg)
	}

	s.Logger.Info("sheet push finished",
		zap.Int("rowsAdded", result.RowsAdded),
		zap.Int("rowsUpdated", result.RowsUpdated),
		zap.Int("totalRows", result.TotalRows))
	return PushResult{
		RowsAdded:   result.RowsAdded,
		RowsUpdated: result.RowsUpdated,
		TotalRows:   result.TotalRows,
	}, nil
}

// PullResult summarizes an applied or previewed pull.
type PullResult struct {
	Patients int  `json:"patients"`
	Revenue  int  `json:"revenue"`
	Skipped  int  `json:"skipped"`
	Applied  bool `json:"applied"`
}

// Pull downloads the entire sheet and, when confirm is set, replaces the
// local patient and revenue collections with it. Without confirm it only
// reports what would be overwritten; the caller is expected to warn the
// user that local-only records will be lost.
func (s *SheetService) Pull(ctx context.Context, webAppURL string, confirm bool) (PullResult, error) {
	if err := validateScriptURL(webAppURL); err != nil {
		return PullResult{}, err
	}

	var remote pullResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&remote).
		Get(webAppURL)
	if err != nil {
		return PullResult{}, fmt.Errorf("không thể kết nối Google Sheets: %w", err)
	}
	if resp.IsError() {
		return PullResult{}, fmt.Errorf("Google Sheets trả về lỗi %d", resp.StatusCode())
	}
	if remote.Status != "success" {
		msg := remote.Message
		if msg == "" {
			msg = "tải dữ liệu thất bại"
		}
		return PullResult{}, errors.New(msg)
	}
	if len(remote.Data) == 0 {
		return PullResult{}, ErrNoRemoteData
	}

	col := map[string]int{}
	for i, name := range remote.Headers {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range requiredSheetHeaders {
		if _, ok := col[required]; !ok {
			return PullResult{}, ErrMissingHeaders
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	patients := make([]consultModels.Patient, 0, len(remote.Data))
	revenue := make([]billingModels.RevenueRecord, 0, len(remote.Data))
	skipped := 0
	for _, row := range remote.Data {
		id := field(row, "id")
		name := field(row, "name")
		date := field(row, "consultationDate")
		if id == "" || name == "" || date == "" {
			skipped++
			continue
		}
		p := consultModels.Patient{
			ID:               id,
			Name:             name,
			Age:              field(row, "age"),
			Gender:           field(row, "gender"),
			Address:          field(row, "address"),
			ConsultationDate: date,
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
		if total := parseAmount(field(row, "tongDoanhThu")); total > 0 {
			revenue = append(revenue, syntheticRevenue(p, total))
		}
	}

	result := PullResult{Patients: len(patients), Revenue: len(revenue), Skipped: skipped}
	if !confirm {
		return result, nil
	}

	err = s.Store.SetMulti(ctx, map[string]interface{}{
		redisstore.KeyPatients: patients,
		redisstore.KeyRevenue:  revenue,
	})
	if err != nil {
		return PullResult{}, err
	}
	result.Applied = true
	s.Logger.Info("sheet pull applied",
		zap.Int("patients", result.Patients),
		zap.Int("revenue", result.Revenue),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func validateScriptURL(url string) error {
	if !strings.HasPrefix(strings.TrimSpace(url), scriptURLPrefix) {
		return ErrBadScriptURL
	}
	return nil
}
