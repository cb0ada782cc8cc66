package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"kontor/internal/auth"
	"kontor/internal/ledger"
	"kontor/internal/logs"
	"kontor/internal/middleware"
	"kontor/internal/models"
	"kontor/internal/repo"
)

var errBadTimestamp = errors.New("bad timestamp")

const (
	defaultEntryLimit = 10
	maxEntryLimit     = 100
)

type Handler struct {
	users    UserStore
	statuses StatusStore
	entries  EntryStore
	issuer   TokenIssuer
	editPerm auth.EditPermission
}

func NewHandler(users UserStore, statuses StatusStore, entries EntryStore, issuer TokenIssuer, editPerm auth.EditPermission) *Handler {
	return &Handler{users: users, statuses: statuses, entries: entries, issuer: issuer, editPerm: editPerm}
}

// ---- хелперы ответов ----

func badJSON(w http.ResponseWriter) {
	models.WriteProblem(w, http.StatusBadRequest,
		models.CodeValidationError, "Bad Request", "malformed JSON body")
}

func validation(w http.ResponseWriter, detail string) {
	models.WriteProblem(w, http.StatusUnprocessableEntity,
		models.CodeValidationError, "Validation Error", detail)
}

// storageProblem переводит ошибку хранилища в ответ; сырые ошибки драйвера
// наружу не отдаются, только reqid для поиска в логах.
func storageProblem(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		models.WriteProblem(w, http.StatusNotFound,
			models.CodeNotFound, "Not Found", "referenced record does not exist")
		return
	}
	reqid := middleware.GetRequestID(r)
	logs.WithReqID(reqid).Errorf("storage error: %v", err)
	models.WriteProblem(w, http.StatusInternalServerError,
		models.CodeStorageUnavailable, "Storage Unavailable",
		"storage operation failed (see logs by reqid "+reqid+")")
}

// ---- корень ----

// GET /
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "kontor back-office API"})
}

// ---- аутентификация ----

// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	if req.Username == "" || req.Password == "" {
		validation(w, "username and password are required")
		return
	}

	// неизвестный логин и неверный пароль неразличимы для клиента
	reject := func() {
		models.WriteProblem(w, http.StatusUnauthorized,
			models.CodeInvalidCredential, "Invalid Credential", "wrong username or password")
	}

	u, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logs.WithReqID(middleware.GetRequestID(r)).Debugf("login failed for %q", req.Username)
			reject()
			return
		}
		storageProblem(w, r, err)
		return
	}
	if !auth.VerifyPassword(req.Password, u.PasswordVerifier) {
		logs.WithReqID(middleware.GetRequestID(r)).Debugf("login failed for %q", req.Username)
		reject()
		return
	}

	token, err := h.issuer.Issue(u.ID, u.RoleID)
	if err != nil {
		// отказ подписи токена — не ошибка хранилища
		reqid := middleware.GetRequestID(r)
		logs.WithReqID(reqid).Errorf("token issue failed: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError,
			models.CodeInternal, "Internal Server Error",
			"failed to issue session token (see logs by reqid "+reqid+")")
		return
	}
	models.WriteJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  userBrief{ID: u.ID, Username: u.Username, RoleID: u.RoleID},
	})
}

// GET /api/verify-token
func (h *Handler) VerifyToken(w http.ResponseWriter, _ *http.Request) {
	// до сюда доходят только запросы, прошедшие Guard
	models.WriteJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// ---- пользователи ----

// GET /api/user
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r)
	u, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, u)
}

// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, users)
}

// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	switch {
	case req.Username == "":
		validation(w, "username is required")
		return
	case req.Password == "":
		validation(w, "password is required")
		return
	case !models.KnownRole(req.RoleID):
		validation(w, "unknown role_id")
		return
	}

	id, err := h.users.Create(r.Context(), repo.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		RoleID:    req.RoleID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			validation(w, "username already taken")
			return
		}
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]uint{"user_id": id})
}

// PUT /api/users/{id}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		validation(w, "bad user id")
		return
	}
	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	if !models.KnownRole(req.RoleID) {
		validation(w, "unknown role_id")
		return
	}
	// уже выданные токены несут старую роль до истечения срока:
	// отзыва сессий нет, смена роли полностью действует со следующего входа
	if err := h.users.UpdateRole(r.Context(), uint(userID), req.RoleID); err != nil {
		storageProblem(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/user/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r)
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	if req.NewPassword == "" {
		validation(w, "new_password is required")
		return
	}
	err := h.users.ChangePassword(r.Context(), id.UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidOldPassword) {
			models.WriteProblem(w, http.StatusForbidden,
				models.CodeInvalidCredential, "Invalid Credential", "old password does not match")
			return
		}
		storageProblem(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/user/status
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r)
	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	if req.Status == "" {
		validation(w, "status is required")
		return
	}
	ok, err := h.statuses.ExistsByName(r.Context(), req.Status)
	if err != nil {
		storageProblem(w, r, err)
		return
	}
	if !ok {
		validation(w, "unknown status")
		return
	}
	if err := h.users.UpdateStatus(r.Context(), id.UserID, req.Status); err != nil {
		storageProblem(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- статусы ----

// GET /api/statuses
func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.statuses.List(r.Context())
	if err != nil {
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, statuses)
}

// POST /api/statuses
func (h *Handler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	var req createStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	if req.Name == "" {
		validation(w, "name is required")
		return
	}
	id, err := h.statuses.Create(r.Context(), req.Name, req.Color)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			validation(w, "status already exists")
			return
		}
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]uint{"status_id": id})
}

// ---- журнал входов/выходов ----

// GET /api/entries?limit=
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r)
	limit := defaultEntryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			validation(w, "bad limit")
			return
		}
		if n > maxEntryLimit {
			n = maxEntryLimit
		}
		limit = n
	}

	entries, err := h.entries.ListRecent(r.Context(), id.UserID, limit)
	if err != nil {
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, entryViews(entries, time.Now()))
}

// POST /api/entries
func (h *Handler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r)
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	// тип храним в каноническом виде: от клиента допускаем лишние пробелы
	req.Type = strings.TrimSpace(req.Type)
	if !validEntryType(req.Type) {
		validation(w, "type must be \"in\" or \"out\"")
		return
	}
	if req.Timestamp.IsZero() {
		validation(w, "timestamp is required")
		return
	}
	entryID, err := h.entries.Append(r.Context(), id.UserID, req.Type, req.Timestamp.Time())
	if err != nil {
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, map[string]uint{"entry_id": entryID})
}

// PUT /api/entries/{id}
func (h *Handler) EditEntry(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r)
	if !h.editPerm.CanEditTime(id.RoleID) {
		models.WriteProblem(w, http.StatusForbidden,
			models.CodeForbidden, "Forbidden", "role is not allowed to edit time entries")
		return
	}
	entryID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		validation(w, "bad entry id")
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	if !validEntryType(req.Type) {
		validation(w, "type must be \"in\" or \"out\"")
		return
	}
	if req.Timestamp.IsZero() {
		validation(w, "timestamp is required")
		return
	}
	e, err := h.entries.Edit(r.Context(), uint(entryID), req.Type, req.Timestamp.Time(), id.UserID)
	if err != nil {
		storageProblem(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, e)
}

func entryViews(entries []models.TimeEntry, now time.Time) []entryView {
	views := make([]entryView, len(entries))
	durations := ledger.Durations(entries, now)
	for i, e := range entries {
		v := entryView{
			ID:        e.ID,
			UserID:    e.UserID,
			Type:      e.Type,
			Timestamp: canonicalTS(e.Timestamp),
			EditedBy:  e.EditedBy,
		}
		if durations[i] != nil {
			secs := int64(*durations[i] / time.Second)
			v.DurationSeconds = &secs
			hhmmss := formatDuration(*durations[i])
			v.Duration = &hhmmss
		}
		views[i] = v
	}
	return views
}
