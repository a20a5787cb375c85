package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token_expired")
	ErrTokenInvalid = errors.New("token_invalid")
)

// AccessClaims — распакованные клеймы access-токена.
type AccessClaims struct {
	UserID    string
	SessionID string
	DeviceID  string
}

type JWTManager struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

func NewJWTManager(secret, issuer, audience string, accessTTL time.Duration) *JWTManager {
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, audience: audience, accessTTL: accessTTL}
}

func (j *JWTManager) AccessTTL() time.Duration { return j.accessTTL }

// IssueAccess подписывает access-токен, привязанный к сессии и устройству.
func (j *JWTManager) IssueAccess(userID, sessionID, deviceID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(j.accessTTL)
	claims := jwt.MapClaims{
		"sub": userID,
		"sid": sessionID,
		"did": deviceID,
		"iss": j.issuer,
		"aud": j.audience,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := t.SignedString(j.secret)
	return token, exp, err
}

// VerifyAccess проверяет подпись, issuer, audience и срок.
// Небольшой leeway на рассинхрон часов.
func (j *JWTManager) VerifyAccess(tokenStr string) (AccessClaims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessClaims{}, ErrTokenExpired
		}
		return AccessClaims{}, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return AccessClaims{}, ErrTokenInvalid
	}

	out := AccessClaims{}
	out.UserID, _ = claims["sub"].(string)
	out.SessionID, _ = claims["sid"].(string)
	out.DeviceID, _ = claims["did"].(string)
	if out.UserID == "" || out.SessionID == "" || out.DeviceID == "" {
		return AccessClaims{}, ErrTokenInvalid
	}
	return out, nil
}
