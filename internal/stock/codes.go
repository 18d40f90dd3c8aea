package stock

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/waretrack/waretrack-backend/pkg/enums"
)

const codeSuffixBytes = 3

// NewTransactionCode builds a human-facing ledger code like
// OUT-20260829143015-a1b2c3. The random suffix keeps codes unique when two
// transactions commit in the same second.
func NewTransactionCode(txType enums.TransactionType, now time.Time) (string, error) {
	suffix := make([]byte, codeSuffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating code suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s",
		txType.CodePrefix(),
		now.UTC().Format("20060102150405"),
		hex.EncodeToString(suffix),
	), nil
}
