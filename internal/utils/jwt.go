package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token validation failures. All three collapse to a single 401 at
// the API boundary; they stay distinguishable here so middleware
// can log which one actually happened. There is no revocation
// list — expiry is the only invalidation mechanism.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// now is the clock used for issuing and validating tokens. Tests
// override it to pin expiry behavior.
var now = func() time.Time { return time.Now().UTC() }

// AccessToken represents a signed JWT access token along with its
// expiry. The Token field contains the JWT string. Access tokens
// are short-lived and sent as a bearer credential on every
// protected call.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims are the decoded contents of a valid access token. Subject
// is the user's email; the user record itself is re-read from the
// store on every request, so the token never carries stale
// account state beyond the role hint.
type Claims struct {
	Subject string    // "sub" claim: user email
	Role    string    // "role" claim at issue time
	Exp     time.Time // "exp" claim
}

// NewAccessToken builds and signs an HS256 JWT whose subject is the
// user's email. ttlMin controls the token lifetime in minutes.
func NewAccessToken(secret, email, role string, ttlMin int) (AccessToken, error) {
	exp := now().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  email,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates a raw bearer token against the shared
// secret and returns its claims. Only HMAC-signed tokens are
// accepted; a different algorithm counts as a bad signature. The
// error is always one of ErrTokenMalformed, ErrTokenSignature or
// ErrTokenExpired.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, ErrTokenSignature
		default:
			return Claims{}, ErrTokenMalformed
		}
	}
	if !tok.Valid {
		return Claims{}, ErrTokenSignature
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenMalformed
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, ErrTokenMalformed
	}
	role, _ := mc["role"].(string)
	var exp time.Time
	if v, err := mc.GetExpirationTime(); err == nil && v != nil {
		exp = v.Time
	}
	return Claims{Subject: sub, Role: role, Exp: exp}, nil
}
