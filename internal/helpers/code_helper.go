package helpers

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// confirmationAlphabet avoids 0/O and 1/I so codes survive being read out
// loud at a gate.
const confirmationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const confirmationCodeLength = 6

// GenerateConfirmationCode returns a short human-shareable code for queue
// entries. Uniqueness is enforced by the caller against the store.
func GenerateConfirmationCode() (string, error) {
	buf := make([]byte, confirmationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = confirmationAlphabet[int(buf[i])%len(confirmationAlphabet)]
	}
	return string(buf), nil
}

// GenerateBarcode returns a globally unique scan key for a ticket.
func GenerateBarcode() string {
	return "PG-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

// GenerateOrderNumber returns a date-prefixed order number for receipts.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// NormalizePhone strips formatting so the same phone number always
// compares equal in the duplicate-join check.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail lowercases and trims for the same reason.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
