package signalserver_test

import (
	"testing"
	"time"

	"github.com/HMasataka/teamcall/internal/signalserver"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier(t *testing.T) {
	verifier := signalserver.NewJWTVerifier("secret")

	t.Run("発行したトークンを検証できる", func(t *testing.T) {
		token, err := signalserver.IssueToken("secret", "user-1", "alice", time.Minute)
		require.NoError(t, err)

		identity, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, signalserver.Identity{UserID: "user-1", Username: "alice"}, identity)
	})

	t.Run("別の鍵で署名されたトークンは拒否する", func(t *testing.T) {
		token, err := signalserver.IssueToken("other", "user-1", "alice", time.Minute)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, signalserver.ErrInvalidToken)
	})

	t.Run("期限切れは拒否する", func(t *testing.T) {
		token, err := signalserver.IssueToken("secret", "user-1", "alice", -time.Minute)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, signalserver.ErrInvalidToken)
	})

	t.Run("HMAC以外の署名方式は拒否する", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, signalserver.Claims{UserID: "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, signalserver.ErrInvalidToken)
	})

	t.Run("空のトークン", func(t *testing.T) {
		_, err := verifier.Verify("")
		assert.ErrorIs(t, err, signalserver.ErrMissingToken)
	})
}
