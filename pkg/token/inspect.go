// Package token decodes bearer tokens for diagnostic output. Signatures are
// never verified and nothing in here decides whether a token is used.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

type Info struct {
	Subject   string                 `json:"subject,omitempty"`
	Issuer    string                 `json:"issuer,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Username  string                 `json:"username,omitempty"`
	Use       string                 `json:"tokenUse,omitempty"`
	IssuedAt  *time.Time             `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time             `json:"expiresAt,omitempty"`
	Algorithm string                 `json:"algorithm,omitempty"`
	Claims    map[string]interface{} `json:"claims"`
}

func Inspect(raw string) (*Info, error) {
	if raw == "" {
		return nil, errors.New("token is empty")
	}

	claims := jwt.MapClaims{}
	tok, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode token")
	}

	info := Info{
		Subject:  stringClaim(claims, "sub"),
		Issuer:   stringClaim(claims, "iss"),
		Email:    stringClaim(claims, "email"),
		Username: firstStringClaim(claims, "preferred_username", "cognito:username", "username"),
		Use:      stringClaim(claims, "token_use"),
		Claims:   claims,
	}

	if tok.Method != nil {
		info.Algorithm = tok.Method.Alg()
	}

	info.IssuedAt = timeClaim(claims, "iat")
	info.ExpiresAt = timeClaim(claims, "exp")

	return &info, nil
}

// Expired reports whether the token carries an expiry before now. Tokens
// without "exp" never expire.
func (i *Info) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func firstStringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if s := stringClaim(claims, k); s != "" {
			return s
		}
	}
	return ""
}

func timeClaim(claims jwt.MapClaims, key string) *time.Time {
	var sec int64
	switch v := claims[key].(type) {
	case float64:
		sec = int64(v)
	case int64:
		sec = v
	default:
		return nil
	}

	t := time.Unix(sec, 0).UTC()
	return &t
}
