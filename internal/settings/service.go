package settings

import (
	"context"
	"fmt"

	"github.com/phongkham/phongkham-backend/pkg/storage/redisstore"
)

type Service struct {
	Store *redisstore.Store
}

func NewService(store *redisstore.Store) *Service {
	return &Service{Store: store}
}

// Get returns the stored settings, falling back to defaults per missing
// document.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	current := Defaults()
	if _, err := s.Store.GetJSON(ctx, redisstore.KeySettings, &current); err != nil {
		return Settings{}, err
	}
	return current, nil
}

// Update validates the enumerated fields and stores the aggregate whole.
func (s *Service) Update(ctx context.Context, next Settings) (Settings, error) {
	for field, value := range map[string]string{
		"themeMode":           next.ThemeMode,
		"primaryColor":        next.PrimaryColor,
		"fontSize":            next.FontSize,
		"language":            next.Language,
		"dateFormat":          next.DateFormat,
		"dataRetentionPeriod": next.DataRetentionPeriod,
		"autoLogoutDuration":  next.AutoLogoutDuration,
	} {
		if !valid(field, value) {
			return Settings{}, fmt.Errorf("giá trị không hợp lệ cho %s: %q", field, value)
		}
	}
	if err := s.Store.SetJSON(ctx, redisstore.KeySettings, next); err != nil {
		return Settings{}, err
	}
	return next, nil
}
