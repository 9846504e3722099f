package registry

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// TrackingIDPattern matches public tracking identifiers: GST- followed by
// eight uppercase hex digits.
var TrackingIDPattern = regexp.MustCompile(`^GST-[0-9A-F]{8}$`)

// mintCredentials generates a fresh tracking identifier and ingest key. The
// key is returned raw exactly once; only its hash is ever stored.
func mintCredentials() (trackingID, ingestKey string, err error) {
	idBytes := make([]byte, 4)
	if _, err := rand.Read(idBytes); err != nil {
		return "", "", fmt.Errorf("mint tracking id: %w", err)
	}
	keyBytes := make([]byte, 24)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", "", fmt.Errorf("mint ingest key: %w", err)
	}
	trackingID = "GST-" + strings.ToUpper(hex.EncodeToString(idBytes))
	ingestKey = base64.RawURLEncoding.EncodeToString(keyBytes)
	return trackingID, ingestKey, nil
}
