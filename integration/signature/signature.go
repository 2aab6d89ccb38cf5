package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/* Standard Webhooks symmetric signing for outbound notifications
 * Signed content is "{msgID}.{unix timestamp}.{body}", HMAC-SHA256, base64
 */

const (
	SecretPrefix     = "whsec_"
	SignatureVersion = "v1"

	// MinSecretBytes is the minimum accepted secret size (192 bits)
	MinSecretBytes = 24

	// MaxSecretBytes is the maximum accepted secret size (512 bits)
	MaxSecretBytes = 64
)

// Header names sent alongside a signed webhook
const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

// Secret is a parsed whsec_ signing secret
type Secret struct {
	raw     []byte
	encoded string
}

// GenerateSecret creates a random secret of size bytes
func GenerateSecret(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, fmt.Errorf("generating random bytes: %w", err)
	}

	return Secret{raw: raw, encoded: SecretPrefix + base64.StdEncoding.EncodeToString(raw)}, nil
}

// ParseSecret decodes a whsec_ prefixed base64 secret
func ParseSecret(encoded string) (Secret, error) {
	if !strings.HasPrefix(encoded, SecretPrefix) {
		return Secret{}, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, SecretPrefix))
	if err != nil {
		return Secret{}, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	return Secret{raw: raw, encoded: encoded}, nil
}

func (s Secret) String() string {
	return s.encoded
}

// Sign returns the header value "v1,<base64 hmac>" for body
func Sign(secret Secret, msgID string, timestamp time.Time, body []byte) (string, error) {
	if strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message ID must not contain '.'")
	}
	return SignatureVersion + "," + base64.StdEncoding.EncodeToString(mac(secret, msgID, timestamp, body)), nil
}

// Verify checks every space-delimited signature in header against body
func Verify(secret Secret, msgID string, timestamp time.Time, body []byte, header string) bool {
	expected := mac(secret, msgID, timestamp, body)

	for _, part := range strings.Fields(header) {
		version, sig, found := strings.Cut(part, ",")
		if !found || version != SignatureVersion {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return true
		}
	}
	return false
}

func mac(secret Secret, msgID string, timestamp time.Time, body []byte) []byte {
	h := hmac.New(sha256.New, secret.raw)
	h.Write([]byte(msgID + "." + strconv.FormatInt(timestamp.Unix(), 10) + "."))
	h.Write(body)
	return h.Sum(nil)
}
