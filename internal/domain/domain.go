// Package domain holds the persisted data model for the asset lifecycle:
// users, assets and their derived variants, review workflow records, the
// append-only activity log with its notification fan-out, per-day analytics
// counters, background job rows, and encrypted application settings.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ByteSize carries unsigned 64-bit file sizes. It serializes as a decimal
// string so JavaScript consumers never lose precision past 2^53.
type ByteSize uint64

func (b ByteSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(b), 10))
}

func (b *ByteSize) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*b = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	*b = ByteSize(v)
	return nil
}
