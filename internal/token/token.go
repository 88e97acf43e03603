// Package token decodes marketplace API tokens. The signature is never
// verified: a token is trusted only after a successful upstream ping.
package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wbcoef/wbcoef/internal/domain"
)

// Scope is a bit position in the token's "s" claim.
type Scope int64

const (
	ScopeContent           Scope = 1
	ScopeAnalytics         Scope = 2
	ScopePricesDiscounts   Scope = 3
	ScopeMarketplace       Scope = 4
	ScopeStatistics        Scope = 5
	ScopePromotion         Scope = 6
	ScopeQuestionsFeedback Scope = 7
	ScopeRecommendations   Scope = 8
	ScopeChat              Scope = 9
	ScopeSupplies          Scope = 10
	ScopeCustomerReturns   Scope = 11
	ScopeDocuments         Scope = 12
	ScopeReadOnly          Scope = 30
)

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Token is a decoded token payload.
type Token struct {
	claims jwt.MapClaims
}

// Parse splits raw into three segments and decodes the middle one as a
// JSON object. The segment may use either base64 alphabet.
func Parse(raw string) (*Token, error) {
	const op = "token.parse"
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return nil, domain.E(domain.KindMalformedToken, op, errSegments)
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, domain.E(domain.KindMalformedToken, op, err)
	}
	if !utf8.Valid(payload) {
		return nil, domain.E(domain.KindMalformedToken, op, errNotText)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	claims := jwt.MapClaims{}
	if err := dec.Decode(&claims); err != nil {
		return nil, domain.E(domain.KindMalformedToken, op, err)
	}
	return &Token{claims: claims}, nil
}

func decodeSegment(seg string) ([]byte, error) {
	b, err := parser.DecodeSegment(seg)
	if err == nil {
		return b, nil
	}
	if std, stdErr := base64.StdEncoding.DecodeString(seg); stdErr == nil {
		return std, nil
	}
	return nil, err
}

// ExpiresAt returns the "exp" claim.
func (t *Token) ExpiresAt() (time.Time, error) {
	exp, err := t.claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, domain.E(domain.KindMissingField, "token.exp", err)
	}
	if exp == nil {
		return time.Time{}, domain.E(domain.KindMissingField, "token.exp", errNoExp)
	}
	return exp.Time, nil
}

// Expired reports exp > now. The name is kept from the bot's history: it is
// true while the token is still valid, and every caller relies on that.
func (t *Token) Expired(now time.Time) (bool, error) {
	exp, err := t.ExpiresAt()
	if err != nil {
		return false, err
	}
	return exp.Unix() > now.Unix(), nil
}

// Lifetime renders the expiry as "dd.mm.yyyy HH:MM:SS" in Moscow time.
func (t *Token) Lifetime() (string, error) {
	exp, err := t.ExpiresAt()
	if err != nil {
		return "", err
	}
	return domain.FormatMoscow(exp.Unix()), nil
}

// HasScope tests s & scope, using the scope value itself as the mask.
func (t *Token) HasScope(scope Scope) (bool, error) {
	n, ok := t.claims["s"].(json.Number)
	if !ok {
		return false, domain.E(domain.KindMissingField, "token.s", errNoScope)
	}
	s, err := n.Int64()
	if err != nil {
		return false, domain.E(domain.KindMissingField, "token.s", err)
	}
	return s&int64(scope) != 0, nil
}

// IsExpired parses raw and applies Expired.
func IsExpired(raw string, now time.Time) (bool, error) {
	t, err := Parse(raw)
	if err != nil {
		return false, err
	}
	return t.Expired(now)
}

// Lifetime parses raw and renders its expiry.
func Lifetime(raw string) (string, error) {
	t, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return t.Lifetime()
}
