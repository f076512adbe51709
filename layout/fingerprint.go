package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// NormalizeText collapses all whitespace runs to single spaces and trims the
// ends, so that layout-irrelevant spacing differences do not defeat the
// result cache.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fingerprint derives the result-cache key for a (document, schema) pair:
// sha256 over the canonical schema serialization followed by the normalized
// document text. The schema string is hashed as given; callers canonicalize
// it first (Schema.Canonical).
func Fingerprint(docText, schemaCanonical string) string {
	h := sha256.New()
	h.Write([]byte(schemaCanonical))
	h.Write([]byte(NormalizeText(docText)))
	return hex.EncodeToString(h.Sum(nil))
}

func encodeResult(res Result) (string, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeResult(raw string, res *Result) error {
	return json.Unmarshal([]byte(raw), res)
}
