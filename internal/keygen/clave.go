package keygen

import (
	"fmt"
	"strings"
	"time"
)

// ClaveLength is the fixed length of a generated document key.
const ClaveLength = 50

// Purpose selects the fixed middle segment of a generated key.
type Purpose int

const (
	PurposeImport Purpose = iota
	PurposeLawAuthorized
)

// The purpose segments occupy positions 22-44 of the key; their first three
// digits double as the branch code read back by the normalizer.
const (
	segmentImport        = "00100002080000000000001"
	segmentLawAuthorized = "00100002090000000000002"
)

func (p Purpose) segment() string {
	if p == PurposeLawAuthorized {
		return segmentLawAuthorized
	}
	return segmentImport
}

// GenerateClave builds a 50-digit document key: the "000" prefix, the
// reference date as ddmmyy, the issuer identification zero-padded to 12
// digits, the purpose segment, and the current wall-clock time as hhmmss.
// The date encodes the business date while the time digits provide
// per-second uniqueness; callers retry on a duplicate at the store.
//
// Identifications longer than 12 digits are rejected so the fixed-length
// contract always holds.
func GenerateClave(refDate time.Time, issuerIdent string, purpose Purpose) (string, error) {
	ident := strings.TrimSpace(issuerIdent)
	if ident == "" {
		return "", fmt.Errorf("issuer identification is empty")
	}
	if len(ident) > 12 {
		return "", fmt.Errorf("issuer identification %q exceeds 12 digits", ident)
	}
	for _, c := range ident {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("issuer identification %q is not numeric", ident)
		}
	}

	now := time.Now()

	var b strings.Builder
	b.Grow(ClaveLength)
	b.WriteString("000")
	fmt.Fprintf(&b, "%02d%02d%02d", refDate.Day(), int(refDate.Month()), refDate.Year()%100)
	b.WriteString(strings.Repeat("0", 12-len(ident)))
	b.WriteString(ident)
	b.WriteString(purpose.segment())
	fmt.Fprintf(&b, "%02d%02d%02d", now.Hour(), now.Minute(), now.Second())

	return b.String(), nil
}
