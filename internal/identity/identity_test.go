package identity_test

import (
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operativa/gestionale/internal/identity"
)

var _ = Describe("RSAVerifier", func() {
	var (
		key      *rsa.PrivateKey
		otherKey *rsa.PrivateKey
	)

	const issuer = "https://idp.example/pool-1"
	const audience = "gestionale-api"

	signedToken := func(k *rsa.PrivateKey, mutate func(c *identity.Claims)) string {
		claims := &identity.Claims{
			Email:     "mario.rossi@demo-srl.example",
			CompanyID: "6d1a1a2e-9c3b-4a34-8a71-2f36cf1b0001",
			TokenUse:  identity.TokenUseAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "cognito-sub-123",
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		if mutate != nil {
			mutate(claims)
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k)
		Expect(err).NotTo(HaveOccurred())
		return raw
	}

	BeforeEach(func() {
		var err error
		key, err = rsa.GenerateKey(rand.Reader, 2048)
		Expect(err).NotTo(HaveOccurred())
		otherKey, err = rsa.GenerateKey(rand.Reader, 2048)
		Expect(err).NotTo(HaveOccurred())
	})

	It("verifies a well-formed access token and exposes its claims", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		claims, err := v.Verify(signedToken(key, nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Subject).To(Equal("cognito-sub-123"))
		Expect(claims.CompanyID).To(Equal("6d1a1a2e-9c3b-4a34-8a71-2f36cf1b0001"))
	})

	It("rejects a token signed with a different key", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		_, err := v.Verify(signedToken(otherKey, nil))
		Expect(err).To(HaveOccurred())
	})

	It("rejects an expired token", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		raw := signedToken(key, func(c *identity.Claims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		})
		_, err := v.Verify(raw)
		Expect(err).To(HaveOccurred())
	})

	It("pins the token_use claim so id tokens cannot pass as access tokens", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		raw := signedToken(key, func(c *identity.Claims) {
			c.TokenUse = identity.TokenUseID
		})
		_, err := v.Verify(raw)
		Expect(err).To(MatchError(ContainSubstring("token_use")))
	})

	It("rejects an issuer other than the configured one", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		raw := signedToken(key, func(c *identity.Claims) {
			c.Issuer = "https://evil.example"
		})
		_, err := v.Verify(raw)
		Expect(err).To(HaveOccurred())
	})

	It("skips issuer validation when no issuer is configured", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, "", audience)

		raw := signedToken(key, func(c *identity.Claims) {
			c.Issuer = "https://anything.example"
		})
		_, err := v.Verify(raw)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a token minted for a different audience", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		raw := signedToken(key, func(c *identity.Claims) {
			c.Audience = jwt.ClaimStrings{"some-other-service"}
		})
		_, err := v.Verify(raw)
		Expect(err).To(HaveOccurred())
	})

	It("skips audience validation when no audience is configured", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, "")

		raw := signedToken(key, func(c *identity.Claims) {
			c.Audience = jwt.ClaimStrings{"some-other-service"}
		})
		_, err := v.Verify(raw)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a token with no subject", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		raw := signedToken(key, func(c *identity.Claims) {
			c.Subject = ""
		})
		_, err := v.Verify(raw)
		Expect(err).To(MatchError(ContainSubstring("subject")))
	})

	It("rejects tokens signed with a non-RSA algorithm", func() {
		v := identity.NewRSAVerifier(&key.PublicKey, identity.TokenUseAccess, issuer, audience)

		claims := &identity.Claims{TokenUse: identity.TokenUseAccess}
		claims.Subject = "cognito-sub-123"
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("shared"))
		Expect(err).NotTo(HaveOccurred())

		_, err = v.Verify(raw)
		Expect(err).To(HaveOccurred())
	})
})
