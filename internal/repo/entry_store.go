package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kontor/internal/models"
)

type EntryStore struct{ db *gorm.DB }

func NewEntryStore(db *gorm.DB) *EntryStore { return &EntryStore{db: db} }

// Append добавляет событие входа/выхода; журнал только растёт,
// записи отсюда не удаляются.
func (s *EntryStore) Append(ctx context.Context, userID uint, entryType string, ts time.Time) (uint, error) {
	e := models.TimeEntry{
		UserID:    userID,
		Type:      entryType,
		Timestamp: ts,
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return 0, err
	}
	return e.ID, nil
}

// ListRecent — последние limit записей пользователя, новые первыми.
func (s *EntryStore) ListRecent(ctx context.Context, userID uint, limit int) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc, id desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *EntryStore) GetByID(ctx context.Context, id uint) (*models.TimeEntry, error) {
	var e models.TimeEntry
	err := s.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &e, err
}

// Edit перезаписывает тип/время записи; прежние значения уходят
// в JSON-снимок prev, редактор фиксируется в edited_by.
func (s *EntryStore) Edit(ctx context.Context, entryID uint, newType string, newTS time.Time, editorID uint) (*models.TimeEntry, error) {
	var e models.TimeEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&e, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		prev, err := json.Marshal(map[string]any{
			"type":      e.Type,
			"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		e.Type = newType
		e.Timestamp = newTS
		e.EditedBy = &editorID
		e.Prev = datatypes.JSON(prev)
		return tx.Save(&e).Error
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}
