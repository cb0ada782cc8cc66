package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"kontor/internal/auth"
	"kontor/internal/models"
	"kontor/internal/repo"
)

// memState — общее состояние хранилища в памяти для тестов обработчиков;
// повторяет контрактное поведение internal/repo (порядок, лимиты,
// sentinel-ошибки). Три обёртки ниже реализуют интерфейсы хранилищ.
type memState struct {
	mu       sync.RWMutex
	users    map[uint]*models.User
	statuses map[uint]*models.Status
	entries  map[uint]*models.TimeEntry
	nextID   uint
}

func newMemState() *memState {
	return &memState{
		users:    make(map[uint]*models.User),
		statuses: make(map[uint]*models.Status),
		entries:  make(map[uint]*models.TimeEntry),
	}
}

func (m *memState) id() uint { m.nextID++; return m.nextID }

func (m *memState) addUser(username, password string, roleID int) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	verifier, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	u := &models.User{ID: m.id(), Username: username, RoleID: roleID, PasswordVerifier: verifier}
	m.users[u.ID] = u
	return u
}

func (m *memState) addStatus(name, color string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &models.Status{ID: m.id(), Name: name, Color: color}
	m.statuses[st.ID] = st
}

func (m *memState) getEntry(id uint) *models.TimeEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	c := *e
	return &c
}

func (m *memState) getUser(id uint) *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

type memUsers struct{ s *memState }

func (m memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, u := range m.s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u := m.s.getUser(id); u != nil {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (m memUsers) Create(_ context.Context, in repo.CreateUserInput) (uint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if u.Username == in.Username {
			return 0, repo.ErrDuplicate
		}
	}
	verifier, err := auth.HashPassword(in.Password)
	if err != nil {
		return 0, err
	}
	u := &models.User{
		ID:               m.s.id(),
		Username:         in.Username,
		Email:            in.Email,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		RoleID:           in.RoleID,
		PasswordVerifier: verifier,
	}
	m.s.users[u.ID] = u
	return u.ID, nil
}

func (m memUsers) ListAll(_ context.Context) ([]models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]models.User, 0, len(m.s.users))
	for _, u := range m.s.users {
		c := *u
		c.PasswordVerifier = ""
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memUsers) UpdateRole(_ context.Context, userID uint, roleID int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.RoleID = roleID
	return nil
}

func (m memUsers) UpdateStatus(_ context.Context, userID uint, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.Status = status
	return nil
}

func (m memUsers) ChangePassword(_ context.Context, userID uint, oldPlaintext, newPlaintext string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	if !auth.VerifyPassword(oldPlaintext, u.PasswordVerifier) {
		return repo.ErrInvalidOldPassword
	}
	verifier, err := auth.HashPassword(newPlaintext)
	if err != nil {
		return err
	}
	u.PasswordVerifier = verifier
	return nil
}

type memStatuses struct{ s *memState }

func (m memStatuses) List(_ context.Context) ([]models.Status, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]models.Status, 0, len(m.s.statuses))
	for _, st := range m.s.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memStatuses) Create(_ context.Context, name, color string) (uint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, st := range m.s.statuses {
		if st.Name == name {
			return 0, repo.ErrDuplicate
		}
	}
	st := &models.Status{ID: m.s.id(), Name: name, Color: color}
	m.s.statuses[st.ID] = st
	return st.ID, nil
}

func (m memStatuses) ExistsByName(_ context.Context, name string) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, st := range m.s.statuses {
		if st.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type memEntries struct{ s *memState }

func (m memEntries) Append(_ context.Context, userID uint, entryType string, ts time.Time) (uint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e := &models.TimeEntry{ID: m.s.id(), UserID: userID, Type: entryType, Timestamp: ts}
	m.s.entries[e.ID] = e
	return e.ID, nil
}

func (m memEntries) ListRecent(_ context.Context, userID uint, limit int) ([]models.TimeEntry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]models.TimeEntry, 0)
	for _, e := range m.s.entries {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memEntries) Edit(_ context.Context, entryID uint, newType string, newTS time.Time, editorID uint) (*models.TimeEntry, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.entries[entryID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	e.Type = newType
	e.Timestamp = newTS
	e.EditedBy = &editorID
	c := *e
	return &c, nil
}
