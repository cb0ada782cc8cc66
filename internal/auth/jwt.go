package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims — стандартные утверждения плюс идентичность пользователя и роль.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint `json:"userId"`
	RoleID int  `json:"roleId"`
}

// Identity — результат проверки токена, живёт в контексте одного запроса.
type Identity struct {
	UserID uint
	RoleID int
}

// Issuer подписывает и проверяет сессионные токены.
// Ключ загружается один раз на старте, ротации в рантайме нет.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue выдаёт токен HS256 с абсолютным сроком жизни ttl от момента выдачи.
func (i *Issuer) Issue(userID uint, roleID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: userID,
		RoleID: roleID,
	})
	return token.SignedString(i.secret)
}

// Parse проверяет подпись и срок; любая ошибка — ErrInvalidToken,
// детали наружу не просачиваются.
func (i *Issuer) Parse(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.UserID, RoleID: claims.RoleID}, nil
}
