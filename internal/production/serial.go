package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// serialSuffixLen is the number of random hex characters appended to a serial.
const serialSuffixLen = 4

// GenerateSerial builds a serial number for a newly created product.
//
// Layout: {productCode}-{yymmdd}-{seq}-{suffix}
// e.g. WM2024-260828-0003-A1F4
//
// The sequence index is the product's 1-based position within its order;
// the random suffix guarantees uniqueness across normalize runs that reuse
// the same date and sequence.
//
// Parameters:
//   - productCode: The order's target product code
//   - seq: 1-based sequence index within the order
//   - now: Timestamp used for the date component
//
// Returns:
//   - string: The generated serial number
func GenerateSerial(productCode string, seq int, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:serialSuffixLen])
	return fmt.Sprintf("%s-%s-%04d-%s", productCode, now.UTC().Format("060102"), seq, suffix)
}
