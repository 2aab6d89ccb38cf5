package signature

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Run("success - round trips through ParseSecret", func(t *testing.T) {
		secret, err := GenerateSecret(32)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(secret.String(), SecretPrefix))

		parsed, err := ParseSecret(secret.String())
		require.NoError(t, err)
		assert.Equal(t, secret.String(), parsed.String())
	})

	t.Run("error - too small", func(t *testing.T) {
		_, err := GenerateSecret(MinSecretBytes - 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret size must be between")
	})
}

func TestParseSecret(t *testing.T) {
	t.Run("error - missing prefix", func(t *testing.T) {
		_, err := ParseSecret("dGVzdHNlY3JldA==")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must start with")
	})

	t.Run("error - invalid base64", func(t *testing.T) {
		_, err := ParseSecret(SecretPrefix + "not-valid-base64!!!")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding base64")
	})
}

func TestSignAndVerify(t *testing.T) {
	secret, err := GenerateSecret(32)
	require.NoError(t, err)
	ts := time.Unix(1700000000, 0)
	body := []byte(`{"event":"pix.generated"}`)

	t.Run("valid signature verifies", func(t *testing.T) {
		header, err := Sign(secret, "msg_1", ts, body)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(header, "v1,"))
		assert.True(t, Verify(secret, "msg_1", ts, body, header))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		header, err := Sign(secret, "msg_1", ts, body)
		require.NoError(t, err)
		assert.False(t, Verify(secret, "msg_1", ts, []byte(`{}`), header))
	})

	t.Run("any of several signatures may match", func(t *testing.T) {
		other, err := GenerateSecret(32)
		require.NoError(t, err)
		stale, err := Sign(other, "msg_1", ts, body)
		require.NoError(t, err)
		current, err := Sign(secret, "msg_1", ts, body)
		require.NoError(t, err)

		assert.True(t, Verify(secret, "msg_1", ts, body, stale+" "+current))
	})

	t.Run("message id with dot is rejected", func(t *testing.T) {
		_, err := Sign(secret, "msg.1", ts, body)
		require.Error(t, err)
	})
}
