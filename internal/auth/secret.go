package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/moodshelf/recs-gateway/internal/config"
)

// ErrBadSecret is returned for any failed admin secret verification.
var ErrBadSecret = errors.New("invalid admin secret")

// VerifySecret checks a presented admin secret. A configured bcrypt hash
// takes precedence so deployments can avoid keeping the plaintext in env;
// otherwise the comparison is constant time.
func VerifySecret(presented string, cfg config.AdminConfig) error {
	if presented == "" {
		return ErrBadSecret
	}
	if cfg.SecretHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.SecretHash), []byte(presented)); err != nil {
			return ErrBadSecret
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.Secret)) != 1 {
		return ErrBadSecret
	}
	return nil
}
