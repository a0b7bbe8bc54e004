package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTransactionID formats TXN-<8 hex chars>-<unix millis>.
func NewTransactionID(at time.Time) string {
	prefix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("TXN-%s-%d", prefix, at.UnixMilli())
}
