package authtoken

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken トークンが不正です
	ErrInvalidToken = errors.New("invalid token")
)

// Manager HS256署名のBearerトークンの発行・検証を行います
type Manager struct {
	secret []byte
	issuer string
}

// NewManager トークンマネージャーを生成します
func NewManager(secret, issuer string) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Sign 指定したユーザーのトークンを発行します
func (m *Manager) Sign(userID uuid.UUID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}).SignedString(m.secret)
}

// Verify トークンを検証し、subjectのユーザーIDを返します
//
// 署名・有効期限・発行者・subjectのいずれかが不正な場合、ErrInvalidTokenを返します。
func (m *Manager) Verify(token string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(
		token,
		func(_ *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.FromString(sub)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
