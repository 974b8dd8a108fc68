package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds the identity provider issues. Both are accepted at the
// boundary; they carry different claim sets.
const (
	TokenUseAccess = "access"
	TokenUseID     = "id"
)

// Claims is the subset of provider claims this core reads. The token is a
// pointer to identity only; authorization fields are overridden by the
// database record when one exists.
type Claims struct {
	Email     string `json:"email"`
	CompanyID string `json:"custom:company_id"`
	Role      string `json:"custom:role"`
	TokenUse  string `json:"token_use"`
	jwt.RegisteredClaims
}

// Identity is the result of resolution: token claims reconciled with the
// database-held authorization record.
type Identity struct {
	Subject   string
	Email     string
	CompanyID string
	Role      string
	Status    string

	// UserID is empty for a degraded identity (subject not yet provisioned
	// in the users table).
	UserID string
}

// HasCompanyBinding reports whether downstream tenant resolution can rely
// on this identity alone.
func (i *Identity) HasCompanyBinding() bool {
	return i.CompanyID != ""
}

// TokenVerifier validates one token kind.
type TokenVerifier interface {
	Verify(raw string) (*Claims, error)
}

// RSAVerifier verifies RS256 tokens against one of the provider's public
// keys, pinning the expected token_use claim. Issuer and audience checks
// apply only when configured.
type RSAVerifier struct {
	key              *rsa.PublicKey
	expectedTokenUse string
	issuer           string
	audience         string
}

func NewRSAVerifier(key *rsa.PublicKey, expectedTokenUse, issuer, audience string) *RSAVerifier {
	return &RSAVerifier{
		key:              key,
		expectedTokenUse: expectedTokenUse,
		issuer:           issuer,
		audience:         audience,
	}
}

func (v *RSAVerifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.TokenUse != v.expectedTokenUse {
		return nil, fmt.Errorf("unexpected token_use %q", claims.TokenUse)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
