// Package ordernum generates human-readable order numbers.
//
// Format: ORD-YYYYMMDD-XXXXXXXX where the suffix is 8 uppercase hex chars
// drawn from a random UUID. Uniqueness is enforced by the database; callers
// retry with a fresh number on a unique violation.
package ordernum

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const prefix = "ORD"

// Generate returns a new candidate order number for the given time.
func Generate(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), suffix)
}
