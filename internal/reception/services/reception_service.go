package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/reception/models"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var (
	ErrNameRequired  = errors.New("vui lòng nhập họ tên")
	ErrEntryNotFound = errors.New("không tìm thấy lượt tiếp nhận")
)

type ReceptionService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
}

func NewReceptionService(store *redisstore.Store, logger *zap.Logger) *ReceptionService {
	return &ReceptionService{Store: store, Logger: logger}
}

// CheckIn queues a visitor for consultation.
func (s *ReceptionService) CheckIn(ctx context.Context, entry models.ReceptionPatient) (models.ReceptionPatient, error) {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return models.ReceptionPatient{}, ErrNameRequired
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Gender == "" {
		entry.Gender = "Nam"
	}
	if entry.ReceptionDate == "" {
		entry.ReceptionDate = time.Now().Format(time.RFC3339)
	}

	queue, err := s.load(ctx)
	if err != nil {
		return models.ReceptionPatient{}, err
	}
	queue = append(queue, entry)
	if err := s.Store.SetJSON(ctx, redisstore.KeyReception, queue); err != nil {
		return models.ReceptionPatient{}, err
	}
	s.Logger.Info("patient checked in", zap.String("id", entry.ID), zap.String("name", entry.Name))
	return entry, nil
}

// VisibleQueue lists the waiting visitors, oldest first. Entries older than
// one year stay in storage but are hidden here.
func (s *ReceptionService) VisibleQueue(ctx context.Context, now time.Time) ([]models.ReceptionPatient, error) {
	queue, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	oneYearAgo := now.AddDate(-1, 0, 0)
	visible := make([]models.ReceptionPatient, 0, len(queue))
	for _, entry := range queue {
		if !entry.Time().Before(oneYearAgo) {
			visible = append(visible, entry)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Time().Before(visible[j].Time())
	})
	return visible, nil
}

func (s *ReceptionService) Delete(ctx context.Context, id string) error {
	queue, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := queue[:0]
	found := false
	for _, entry := range queue {
		if entry.ID == id {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return ErrEntryNotFound
	}
	return s.Store.SetJSON(ctx, redisstore.KeyReception, kept)
}

func (s *ReceptionService) load(ctx context.Context) ([]models.ReceptionPatient, error) {
	var queue []models.ReceptionPatient
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyReception, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}
