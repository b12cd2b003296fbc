package orders

import (
	"fmt"
	"time"
)

// orderSequenceName is the durable counter row shared by all order creations.
const orderSequenceName = "order_number"

// FormatOrderNumber renders {OUTLETCODE}-{DDMMYY}-{SEQ}. The sequence is a
// single global counter, so numbers are monotonic across outlets and dates.
func FormatOrderNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%d", prefix, date.Format("020106"), seq)
}
