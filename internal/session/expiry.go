package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// Expiry reads the exp claim of a JWT without verifying its signature.
func Expiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parsing token: %w", err)
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case json.Number:
		v, err := exp.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing exp: %w", err)
		}
		return time.Unix(v, 0), nil
	default:
		return time.Time{}, ErrNoExpiry
	}
}

// Remaining is the time left before token expires, zero when it already
// has or when the expiry cannot be read.
func Remaining(token string, now time.Time) time.Duration {
	exp, err := Expiry(token)
	if err != nil || !exp.After(now) {
		return 0
	}
	return exp.Sub(now)
}
