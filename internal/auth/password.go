package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme — схема хранимого верификатора пароля.
type Scheme int

const (
	// SchemeLegacy — sha256-hex без соли; остаётся в базе до следующей
	// смены пароля, новые верификаторы в этой схеме не создаются.
	SchemeLegacy Scheme = iota
	// SchemeBcrypt — солёный адаптивный хеш, целевая схема.
	SchemeBcrypt
)

var ErrUnknownVerifier = errors.New("unknown verifier format")

// Verifier — размеченный вариант: схема определяется один раз при разборе,
// дальше проверка диспетчеризуется по тегу.
type Verifier struct {
	Scheme  Scheme
	payload string
}

// ParseVerifier разбирает хранимое значение в размеченный вариант.
// bcrypt узнаётся по модульному префиксу "$2", legacy — 64 hex-символа.
func ParseVerifier(stored string) (Verifier, error) {
	if strings.HasPrefix(stored, "$2") {
		return Verifier{Scheme: SchemeBcrypt, payload: stored}, nil
	}
	if len(stored) == sha256.Size*2 {
		if _, err := hex.DecodeString(stored); err == nil {
			return Verifier{Scheme: SchemeLegacy, payload: strings.ToLower(stored)}, nil
		}
	}
	return Verifier{}, ErrUnknownVerifier
}

// Verify сверяет пароль с верификатором по его схеме.
func (v Verifier) Verify(plaintext string) bool {
	switch v.Scheme {
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(v.payload), []byte(plaintext)) == nil
	case SchemeLegacy:
		sum := sha256.Sum256([]byte(plaintext))
		digest := hex.EncodeToString(sum[:])
		// сравнение с постоянным временем
		return subtle.ConstantTimeCompare([]byte(digest), []byte(v.payload)) == 1
	default:
		return false
	}
}

// HashPassword всегда выдаёт верификатор в целевой схеме (bcrypt).
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword — разбор плюс проверка одним вызовом.
func VerifyPassword(plaintext, stored string) bool {
	v, err := ParseVerifier(stored)
	if err != nil {
		return false
	}
	return v.Verify(plaintext)
}
