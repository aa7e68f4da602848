package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appErr "github.com/recipebook/api/pkg/errors"
)

// TokenIssuer signs and verifies bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID uint) (string, error)
	Parse(token string) (uint, error)
}

type jwtIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret []byte, ttl time.Duration) TokenIssuer {
	return &jwtIssuer{secret: secret, ttl: ttl, now: time.Now}
}

func (j *jwtIssuer) Issue(userID uint) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	})
	s, err := token.SignedString(j.secret)
	if err != nil {
		return "", appErr.Wrap(err, appErr.CodeInternal, "sign token failed")
	}
	return s, nil
}

func (j *jwtIssuer) Parse(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, appErr.Wrap(err, appErr.CodeUnauthorized, "token expired")
		}
		return 0, appErr.Wrap(err, appErr.CodeUnauthorized, "invalid token")
	}
	if !token.Valid {
		return 0, appErr.New(appErr.CodeUnauthorized, "invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, appErr.New(appErr.CodeUnauthorized, "invalid token subject")
	}
	return uint(id), nil
}
