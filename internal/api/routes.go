package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"kontor/internal/auth"
)

// RegisterRoutes вешает публичные и защищённые маршруты.
// Защищённая зона: Guard на всё, RequireAdmin — отдельной подзоной.
func RegisterRoutes(r *mux.Router, h *Handler, issuer *auth.Issuer) {
	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost)

	// guard-only
	private := r.PathPrefix("/api").Subrouter()
	private.Use(auth.Guard(issuer))
	private.HandleFunc("/verify-token", h.VerifyToken).Methods(http.MethodGet)
	private.HandleFunc("/user", h.Me).Methods(http.MethodGet)
	private.HandleFunc("/user/password", h.ChangePassword).Methods(http.MethodPut)
	private.HandleFunc("/user/status", h.ChangeStatus).Methods(http.MethodPut)
	private.HandleFunc("/statuses", h.ListStatuses).Methods(http.MethodGet)
	private.HandleFunc("/entries", h.ListEntries).Methods(http.MethodGet)
	private.HandleFunc("/entries", h.AppendEntry).Methods(http.MethodPost)
	private.HandleFunc("/entries/{id:[0-9]+}", h.EditEntry).Methods(http.MethodPut)

	// guard + admin
	admin := r.PathPrefix("/api").Subrouter()
	admin.Use(auth.Guard(issuer), auth.RequireAdmin)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id:[0-9]+}/role", h.ChangeRole).Methods(http.MethodPut)
	admin.HandleFunc("/statuses", h.CreateStatus).Methods(http.MethodPost)
}
