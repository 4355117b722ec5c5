package user

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TokenIssuer", func() {
	var (
		issuer *TokenIssuer
		now    time.Time
	)

	BeforeEach(func() {
		issuer = NewTokenIssuer("test-secret", time.Hour)
		now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	})

	Describe("Issue and Verify", func() {
		It("round-trips the user claims", func() {
			token, err := issuer.Issue("user-1", "jamie@example.com", now)
			Expect(err).NotTo(HaveOccurred())

			claims, err := issuer.Verify(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("user-1"))
			Expect(claims.Email).To(Equal("jamie@example.com"))
		})

		It("sets expiry one TTL after issuance", func() {
			token, err := issuer.Issue("user-1", "jamie@example.com", now)
			Expect(err).NotTo(HaveOccurred())

			claims, err := issuer.Verify(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.ExpiresAt.Time).To(BeTemporally("==", now.Add(time.Hour)))
		})
	})

	Describe("Verify", func() {
		It("rejects an expired token", func() {
			expired := time.Now().Add(-2 * time.Hour)
			token, err := issuer.Issue("user-1", "jamie@example.com", expired)
			Expect(err).NotTo(HaveOccurred())

			_, err = issuer.Verify(token)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a token signed with a different secret", func() {
			other := NewTokenIssuer("other-secret", time.Hour)
			token, err := other.Issue("user-1", "jamie@example.com", now)
			Expect(err).NotTo(HaveOccurred())

			_, err = issuer.Verify(token)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a token signed with the wrong method", func() {
			unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
			token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
			Expect(err).NotTo(HaveOccurred())

			_, err = issuer.Verify(token)
			Expect(err).To(HaveOccurred())
		})

		It("rejects garbage", func() {
			_, err := issuer.Verify("not.a.token")
			Expect(err).To(HaveOccurred())
		})
	})
})
