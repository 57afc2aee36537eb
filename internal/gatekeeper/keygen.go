package gatekeeper

import (
	"crypto/rand"
	"fmt"
	"time"
)

// keyAlphabet excludes visually confusable characters (0/O, 1/I) so keys
// stay human-typable. Its length divides 256, keeping rand bytes unbiased.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const keyRandomLen = 5

// GenerateKey produces a key of the form PREFIX-XXXXX-YYMMDD. Uniqueness is
// enforced by the store; callers retry on a duplicate.
func GenerateKey(prefix string, now time.Time) (string, error) {
	buf := make([]byte, keyRandomLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	code := make([]byte, keyRandomLen)
	for i, b := range buf {
		code[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, code, now.Format("060102")), nil
}
