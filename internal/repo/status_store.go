package repo

import (
	"context"

	"gorm.io/gorm"

	"kontor/internal/models"
)

type StatusStore struct{ db *gorm.DB }

func NewStatusStore(db *gorm.DB) *StatusStore { return &StatusStore{db: db} }

func (s *StatusStore) List(ctx context.Context) ([]models.Status, error) {
	var statuses []models.Status
	err := s.db.WithContext(ctx).Order("id asc").Find(&statuses).Error
	return statuses, err
}

func (s *StatusStore) Create(ctx context.Context, name, color string) (uint, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Status{}).
		Where("name = ?", name).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrDuplicate
	}
	st := models.Status{Name: name, Color: color}
	if err := s.db.WithContext(ctx).Create(&st).Error; err != nil {
		return 0, err
	}
	return st.ID, nil
}

func (s *StatusStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Status{}).
		Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// SeedDefaults заливает базовый набор статусов в пустой справочник.
func (s *StatusStore) SeedDefaults(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Status{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	defaults := []models.Status{
		{Name: "online", Color: "#22c55e"},
		{Name: "away", Color: "#eab308"},
		{Name: "busy", Color: "#ef4444"},
		{Name: "offline", Color: "#6b7280"},
	}
	return s.db.WithContext(ctx).Create(&defaults).Error
}
