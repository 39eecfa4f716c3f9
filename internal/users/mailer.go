package users

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"
)

// Mailer delivers password-reset notices. The server wires a logging
// implementation; a real transport can be swapped in without touching
// the handlers.
type Mailer interface {
	SendPasswordReset(to, newPassword string) error
}

// LogMailer writes the reset notice to the application log instead of
// sending mail.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(to, newPassword string) error {
	log.Info().
		Str("to", to).
		Msg("password reset generated, mail transport not configured")
	return nil
}

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generatePassword returns a random alphanumeric password of the given length.
func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
