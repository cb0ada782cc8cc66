package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"kontor/internal/auth"
	"kontor/internal/models"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("record already exists")
	ErrInvalidOldPassword = errors.New("old password does not verify")
)

type UserStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(&models.User{Username: username}).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &u, err
}

func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &u, err
}

type CreateUserInput struct {
	Username  string
	Email     string
	Password  string // plaintext; хешируется здесь, дальше не живёт
	RoleID    int
	FirstName string
	LastName  string
}

func (s *UserStore) Create(ctx context.Context, in CreateUserInput) (uint, error) {
	// дубликат имени ловим заранее, не полагаясь на текст ошибки драйвера
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrDuplicate
	}

	verifier, err := auth.HashPassword(in.Password)
	if err != nil {
		return 0, err
	}
	u := models.User{
		Username:         in.Username,
		Email:            in.Email,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		RoleID:           in.RoleID,
		PasswordVerifier: verifier,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return 0, err
	}
	return u.ID, nil
}

// ListAll возвращает пользователей по возрастанию id; верификатор в выборку
// не попадает.
func (s *UserStore) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Omit("password_verifier").
		Order("id asc").
		Find(&users).Error
	return users, err
}

// mysql отдаёт 0 затронутых строк при записи того же значения, поэтому
// существование проверяем чтением, а не по RowsAffected.
func (s *UserStore) UpdateRole(ctx context.Context, userID uint, roleID int) error {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Model(&u).Update("role_id", roleID).Error
}

func (s *UserStore) UpdateStatus(ctx context.Context, userID uint, status string) error {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Model(&u).Update("status", status).Error
}

// ChangePassword сверяет старый пароль и пишет новый верификатор (bcrypt)
// в одной транзакции: перечитываем запись внутри неё, чтобы не перезаписать
// параллельную смену по устаревшей проверке.
func (s *UserStore) ChangePassword(ctx context.Context, userID uint, oldPlaintext, newPlaintext string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !auth.VerifyPassword(oldPlaintext, u.PasswordVerifier) {
			return ErrInvalidOldPassword
		}
		verifier, err := auth.HashPassword(newPlaintext)
		if err != nil {
			return err
		}
		return tx.Model(&u).Update("password_verifier", verifier).Error
	})
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
