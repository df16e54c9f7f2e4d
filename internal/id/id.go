package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in a record ID.
const Length = 15

// legSep separates a transfer ID from its leg letter.
const legSep = "."

// New returns a random record ID of Length lowercase hex characters.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:Length]
}

// FormatLegID returns the transaction ID of one transfer leg
// (leg 0 = 'a' for the origin, 1 = 'b' for the destination).
func FormatLegID(transferID string, leg int) string {
	return fmt.Sprintf("%s%s%c", transferID, legSep, rune('a'+leg))
}

// ParseLegID splits a leg ID into its transfer ID and leg index.
func ParseLegID(legID string) (transferID string, leg int, err error) {
	i := strings.LastIndex(legID, legSep)
	if i <= 0 || i != len(legID)-2 {
		return "", 0, fmt.Errorf("invalid leg ID format: %q", legID)
	}
	c := legID[len(legID)-1]
	if c < 'a' || c > 'z' {
		return "", 0, fmt.Errorf("invalid leg letter in %q", legID)
	}
	return legID[:i], int(c - 'a'), nil
}

// TransferGroup strips the leg suffix from a leg ID. IDs without a suffix
// are returned unchanged.
// "3f2a9c0d1e4b5a6.b" -> "3f2a9c0d1e4b5a6"
func TransferGroup(legID string) string {
	transferID, _, err := ParseLegID(legID)
	if err != nil {
		return legID
	}
	return transferID
}
