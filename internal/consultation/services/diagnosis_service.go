package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	pharmacyModels "github.com/phongkham/phongkham-backend/internal/pharmacy/models"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var (
	ErrDiagnosisRequired = errors.New("tên chẩn đoán không được để trống")
	ErrDiagnosisExists   = errors.New("chẩn đoán này đã có trong danh sách")
	ErrDiagnosisNotFound = errors.New("không tìm thấy chẩn đoán")
)

// DiagnosisService manages the diagnosis master list. Consultation saves
// grow the same list automatically; this surface is for curating it.
type DiagnosisService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
}

func NewDiagnosisService(store *redisstore.Store, logger *zap.Logger) *DiagnosisService {
	return &DiagnosisService{Store: store, Logger: logger}
}

func (s *DiagnosisService) List(ctx context.Context, search string) ([]string, error) {
	diagnoses, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return diagnoses, nil
	}
	out := make([]string, 0, len(diagnoses))
	for _, d := range diagnoses {
		if strings.Contains(strings.ToLower(d), search) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *DiagnosisService) Add(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrDiagnosisRequired
	}
	diagnoses, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range diagnoses {
		if strings.EqualFold(d, name) {
			return "", ErrDiagnosisExists
		}
	}
	diagnoses = append(diagnoses, name)
	sort.Strings(diagnoses)
	if err := s.Store.SetJSON(ctx, redisstore.KeyDiagnoses, diagnoses); err != nil {
		return "", err
	}
	s.Logger.Info("diagnosis added", zap.String("name", name))
	return name, nil
}

// Rename replaces the diagnosis identified by its exact current name. The
// new name may differ from an existing entry only in case when it is the
// renamed entry itself. Patient records keep the old text; the master list
// is a suggestion source, not a foreign key.
func (s *DiagnosisService) Rename(ctx context.Context, name, newName string) (string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return "", ErrDiagnosisRequired
	}
	diagnoses, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	index := -1
	for i, d := range diagnoses {
		if d == name {
			index = i
			continue
		}
		if strings.EqualFold(d, newName) {
			return "", ErrDiagnosisExists
		}
	}
	if index == -1 {
		return "", ErrDiagnosisNotFound
	}
	diagnoses[index] = newName
	sort.Strings(diagnoses)
	if err := s.Store.SetJSON(ctx, redisstore.KeyDiagnoses, diagnoses); err != nil {
		return "", err
	}
	s.Logger.Info("diagnosis renamed", zap.String("from", name), zap.String("to", newName))
	return newName, nil
}

func (s *DiagnosisService) Delete(ctx context.Context, name string) error {
	diagnoses, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := diagnoses[:0]
	found := false
	for _, d := range diagnoses {
		if d == name {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return ErrDiagnosisNotFound
	}
	return s.Store.SetJSON(ctx, redisstore.KeyDiagnoses, kept)
}

func (s *DiagnosisService) DeleteAll(ctx context.Context) error {
	return s.Store.SetJSON(ctx, redisstore.KeyDiagnoses, []string{})
}

func (s *DiagnosisService) load(ctx context.Context) ([]string, error) {
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
