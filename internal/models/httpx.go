package models

import (
	"encoding/json"
	"net/http"
)

// Стабильные коды ошибок в ответах.
const (
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidCredential  = "invalid_credential"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeValidationError    = "validation_error"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternal           = "internal_error"
)

// Problem представляет ответ об ошибке в стиле RFC 7807
// плюс машинный код для клиента.
type Problem struct {
	Code   string `json:"code"`             // стабильный код ошибки
	Title  string `json:"title"`            // краткое название
	Status int    `json:"status"`           // HTTP код
	Detail string `json:"detail,omitempty"` // подробности
}

func WriteProblem(w http.ResponseWriter, status int, code, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Code:   code,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
