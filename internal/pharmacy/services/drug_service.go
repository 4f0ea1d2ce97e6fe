package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/pharmacy/models"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var (
	ErrDrugNameRequired = errors.New("tên thuốc không được để trống")
	ErrDrugExists       = errors.New("thuốc này đã có trong danh sách")
	ErrDrugNotFound     = errors.New("không tìm thấy thuốc")
)

type DrugService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
}

func NewDrugService(store *redisstore.Store, logger *zap.Logger) *DrugService {
	return &DrugService{Store: store, Logger: logger}
}

// List returns the drug master list, seeding the default catalog on a
// fresh install.
func (s *DrugService) List(ctx context.Context, search string) ([]models.Drug, error) {
	drugs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return drugs, nil
	}
	out := make([]models.Drug, 0, len(drugs))
	for _, d := range drugs {
		if strings.Contains(strings.ToLower(d.Name), search) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *DrugService) Add(ctx context.Context, drug models.Drug) (models.Drug, error) {
	drug.Name = strings.TrimSpace(drug.Name)
	if drug.Name == "" {
		return models.Drug{}, ErrDrugNameRequired
	}
	drug = withDefaults(drug)

	drugs, err := s.load(ctx)
	if err != nil {
		return models.Drug{}, err
	}
	for _, d := range drugs {
		if strings.EqualFold(d.Name, drug.Name) {
			return models.Drug{}, ErrDrugExists
		}
	}
	drugs = append(drugs, drug)
	sortDrugs(drugs)
	if err := s.Store.SetJSON(ctx, redisstore.KeyDrugs, drugs); err != nil {
		return models.Drug{}, err
	}
	s.Logger.Info("drug added", zap.String("name", drug.Name))
	return drug, nil
}

// Update replaces the drug identified by its (exact) current name. Renames
// do not cascade into existing prescription lines; that soft reference is a
// known limitation.
func (s *DrugService) Update(ctx context.Context, name string, drug models.Drug) (models.Drug, error) {
	drug.Name = strings.TrimSpace(drug.Name)
	if drug.Name == "" {
		return models.Drug{}, ErrDrugNameRequired
	}
	drug = withDefaults(drug)

	drugs, err := s.load(ctx)
	if err != nil {
		return models.Drug{}, err
	}
	found := false
	for i := range drugs {
		if drugs[i].Name == name {
			drugs[i] = drug
			found = true
			break
		}
	}
	if !found {
		return models.Drug{}, ErrDrugNotFound
	}
	sortDrugs(drugs)
	if err := s.Store.SetJSON(ctx, redisstore.KeyDrugs, drugs); err != nil {
		return models.Drug{}, err
	}
	return drug, nil
}

func (s *DrugService) Delete(ctx context.Context, name string) error {
	drugs, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := drugs[:0]
	found := false
	for _, d := range drugs {
		if d.Name == name {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return ErrDrugNotFound
	}
	return s.Store.SetJSON(ctx, redisstore.KeyDrugs, kept)
}

func (s *DrugService) DeleteAll(ctx context.Context) error {
	return s.Store.SetJSON(ctx, redisstore.KeyDrugs, []models.Drug{})
}

// Merge adds the incoming batch to the master list by case-insensitive
// name; duplicates against the existing list are silently dropped. Returns
// the number actually added.
func (s *DrugService) Merge(ctx context.Context, incoming []models.Drug) (int, error) {
	drugs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]bool, len(drugs))
	for _, d := range drugs {
		existing[strings.ToLower(d.Name)] = true
	}
	added := 0
	for _, d := range incoming {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" || existing[strings.ToLower(d.Name)] {
			continue
		}
		existing[strings.ToLower(d.Name)] = true
		drugs = append(drugs, withDefaults(d))
		added++
	}
	if added == 0 {
		return 0, nil
	}
	sortDrugs(drugs)
	if err := s.Store.SetJSON(ctx, redisstore.KeyDrugs, drugs); err != nil {
		return 0, err
	}
	s.Logger.Info("drug batch merged", zap.Int("added", added), zap.Int("incoming", len(incoming)))
	return added, nil
}

func withDefaults(d models.Drug) models.Drug {
	if d.Usage == "" {
		d.Usage = "uống"
	}
	if d.Unit == "" {
		d.Unit = "viên"
	}
	return d
}

func sortDrugs(drugs []models.Drug) {
	sort.SliceStable(drugs, func(i, j int) bool {
		return strings.ToLower(drugs[i].Name) < strings.ToLower(drugs[j].Name)
	})
}

func (s *DrugService) load(ctx context.Context) ([]models.Drug, error) {
	var drugs []models.Drug
	found, err := s.Store.GetJSON(ctx, redisstore.KeyDrugs, &drugs)
	if err != nil {
		return nil, err
	}
	if !found {
		return append([]models.Drug(nil), models.SeedDrugs...), nil
	}
	return drugs, nil
}
