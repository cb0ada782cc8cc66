package api

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"kontor/internal/models"
	"kontor/internal/repo"
)

// Контракты хранилищ — минимум, который нужен обработчикам.
// Реализуются в internal/repo; в тестах подменяются памятью.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, in repo.CreateUserInput) (uint, error)
	ListAll(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, userID uint, roleID int) error
	UpdateStatus(ctx context.Context, userID uint, status string) error
	ChangePassword(ctx context.Context, userID uint, oldPlaintext, newPlaintext string) error
}

type StatusStore interface {
	List(ctx context.Context) ([]models.Status, error)
	Create(ctx context.Context, name, color string) (uint, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type EntryStore interface {
	Append(ctx context.Context, userID uint, entryType string, ts time.Time) (uint, error)
	ListRecent(ctx context.Context, userID uint, limit int) ([]models.TimeEntry, error)
	Edit(ctx context.Context, entryID uint, newType string, newTS time.Time, editorID uint) (*models.TimeEntry, error)
}

// TokenIssuer выдаёт сессионный токен; реализуется internal/auth.Issuer.
type TokenIssuer interface {
	Issue(userID uint, roleID int) (string, error)
}

// Timestamp принимает отметку времени клиента в нескольких видах
// и приводит к каноническому: UTC, точность до секунды.
type Timestamp time.Time

const wallClockLayout = "2006-01-02 15:04:05"

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil && s != "" {
		// наивная отметка SPA ("2006-01-02 15:04:05") трактуется как UTC
		if ts, err := time.Parse(wallClockLayout, s); err == nil {
			*t = Timestamp(ts.UTC())
			return nil
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		*t = Timestamp(ts.UTC().Truncate(time.Second))
		return nil
	}
	var unix int64
	if err := json.Unmarshal(b, &unix); err != nil || unix <= 0 {
		return errBadTimestamp
	}
	*t = Timestamp(time.Unix(unix, 0).UTC())
	return nil
}

func (t Timestamp) Time() time.Time { return time.Time(t) }
func (t Timestamp) IsZero() bool    { return time.Time(t).IsZero() }

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  userBrief `json:"user"`
}

type userBrief struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	RoleID   int    `json:"role_id"`
}

type createUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    int    `json:"role_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type changeRoleRequest struct {
	RoleID int `json:"role_id"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

type createStatusRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type entryRequest struct {
	Type      string    `json:"type"`
	Timestamp Timestamp `json:"timestamp"`
}

// entryView — запись журнала плюс выведенная длительность сессии.
type entryView struct {
	ID              uint    `json:"id"`
	UserID          uint    `json:"user_id"`
	Type            string  `json:"type"`
	Timestamp       string  `json:"timestamp"`
	EditedBy        *uint   `json:"edited_by,omitempty"`
	DurationSeconds *int64  `json:"duration_seconds"`
	Duration        *string `json:"duration,omitempty"` // HH:MM:SS для клиента
}

func canonicalTS(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

func pad2(n int64) string {
	v := strconv.FormatInt(n, 10)
	if len(v) == 1 {
		return "0" + v
	}
	return v
}

func validEntryType(t string) bool {
	return t == models.EntryTypeIn || t == models.EntryTypeOut
}
