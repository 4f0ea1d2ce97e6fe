package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/phongkham/phongkham-backend/internal/billing/models"
	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

var (
	ErrRevenueNotFound  = errors.New("không tìm thấy hóa đơn")
	ErrBadPaymentStatus = errors.New("trạng thái thanh toán không hợp lệ")
)

type RevenueService struct {
	Store  *redisstore.Store
	Logger *zap.Logger
}

func NewRevenueService(store *redisstore.Store, logger *zap.Logger) *RevenueService {
	return &RevenueService{Store: store, Logger: logger}
}

func (s *RevenueService) List(ctx context.Context) ([]models.RevenueRecord, error) {
	var revenue []models.RevenueRecord
	if _, err := s.Store.GetJSON(ctx, redisstore.KeyRevenue, &revenue); err != nil {
		return nil, err
	}
	return revenue, nil
}

// SetPaymentStatus flips one invoice between paid and unpaid.
func (s *RevenueService) SetPaymentStatus(ctx context.Context, recordID, status string) (models.RevenueRecord, error) {
	if status != models.PaymentPaid && status != models.PaymentUnpaid {
		return models.RevenueRecord{}, ErrBadPaymentStatus
	}
	revenue, err := s.List(ctx)
	if err != nil {
		return models.RevenueRecord{}, err
	}
	for i := range revenue {
		if revenue[i].ID == recordID {
			revenue[i].PaymentStatus = status
			if err := s.Store.SetJSON(ctx, redisstore.KeyRevenue, revenue); err != nil {
				return models.RevenueRecord{}, err
			}
			s.Logger.Info("payment status updated",
				zap.String("record_id", recordID),
				zap.String("status", status),
			)
			return revenue[i], nil
		}
	}
	return models.RevenueRecord{}, ErrRevenueNotFound
}
