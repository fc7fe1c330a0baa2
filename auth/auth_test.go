package auth

import (
	"testing"
	"time"

	"bluecollar-chat/domain"
	"bluecollar-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndVerify(t *testing.T) {
	manager := NewTokenManager("test-secret-at-least-32-bytes-long", time.Hour)

	t.Run("should round-trip the identity", func(t *testing.T) {
		req := require.New(t)
		token, err := manager.Generate("user-1", "Alice the Plumber", domain.RoleProvider)
		req.NoError(err)

		identity, err := manager.Verify(token)
		req.NoError(err)
		req.Equal(domain.UserID("user-1"), identity.ID)
		req.Equal("Alice the Plumber", identity.DisplayName)
		req.Equal(domain.RoleProvider, identity.Role)
	})

	t.Run("should refuse a garbage token", func(t *testing.T) {
		req := require.New(t)
		_, err := manager.Verify("not-a-token")
		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("should refuse a token signed with another secret", func(t *testing.T) {
		req := require.New(t)
		other := NewTokenManager("a-completely-different-secret-key!", time.Hour)
		token, err := other.Generate("user-1", "", domain.RoleClient)
		req.NoError(err)

		_, err = manager.Verify(token)
		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("should refuse an expired token", func(t *testing.T) {
		req := require.New(t)
		shortLived := NewTokenManager("test-secret-at-least-32-bytes-long", -time.Minute)
		token, err := shortLived.Generate("user-1", "", domain.RoleClient)
		req.NoError(err)

		_, err = manager.Verify(token)
		req.ErrorIs(err, errors.ErrUnauthenticated)
	})
}

func TestPassword_HashAndCompare(t *testing.T) {
	t.Run("should verify the original password", func(t *testing.T) {
		req := require.New(t)
		hash, err := HashPassword("Str0ngPassword!")
		req.NoError(err)

		match, err := ComparePassword("Str0ngPassword!", hash)
		req.NoError(err)
		req.True(match)
	})

	t.Run("should reject a different password", func(t *testing.T) {
		req := require.New(t)
		hash, err := HashPassword("Str0ngPassword!")
		req.NoError(err)

		match, err := ComparePassword("WrongPassword1!", hash)
		req.NoError(err)
		req.False(match)
	})

	t.Run("should salt hashes so equal passwords differ", func(t *testing.T) {
		req := require.New(t)
		first, err := HashPassword("Str0ngPassword!")
		req.NoError(err)
		second, err := HashPassword("Str0ngPassword!")
		req.NoError(err)
		req.NotEqual(first, second)
	})

	t.Run("should fail on a malformed stored hash", func(t *testing.T) {
		req := require.New(t)
		_, err := ComparePassword("whatever", "not-an-encoded-hash")
		req.Error(err)
	})
}

func TestValidateRegister(t *testing.T) {
	t.Run("should accept a compliant request", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{
			Email:    "pro@example.com",
			Password: "Str0ngPassword!!",
			Role:     "provider",
		})
		req.NoError(err)
	})

	t.Run("should reject weak passwords", func(t *testing.T) {
		req := require.New(t)
		for _, password := range []string{
			"short1!A",
			"alllowercase1234!",
			"NoDigitsInHerePresent!",
			"MissingSpecial12345678",
		} {
			err := ValidateRegister(RegisterRequest{Email: "a@b.com", Password: password, Role: "client"})
			req.Error(err, "password %q should be rejected", password)
		}
	})

	t.Run("should reject an unknown role", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Email: "a@b.com", Password: "Str0ngPassword!!", Role: "admin"})
		req.Error(err)
	})

	t.Run("should reject a malformed email", func(t *testing.T) {
		req := require.New(t)
		err := ValidateRegister(RegisterRequest{Email: "not-an-email", Password: "Str0ngPassword!!", Role: "client"})
		req.Error(err)
	})
}
