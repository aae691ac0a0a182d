package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const ticketSuffixLen = 6

var base36Max = new(big.Int).Exp(big.NewInt(36), big.NewInt(ticketSuffixLen), nil)

// GenerateTicketID builds a ticket identifier of the form
// TKT-<unix-millis>-<6 random base36 chars>, upper-cased. Uniqueness is
// probabilistic: the millisecond timestamp plus ~2.1 billion suffixes makes a
// collision within one instant vanishingly unlikely, but nothing enforces it.
func GenerateTicketID() string {
	millis := time.Now().UnixMilli()
	n, err := rand.Int(rand.Reader, base36Max)
	if err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// the clock so issuance keeps working regardless.
		n = big.NewInt(millis % base36Max.Int64())
	}
	suffix := n.Text(36)
	for len(suffix) < ticketSuffixLen {
		suffix = "0" + suffix
	}
	return strings.ToUpper(fmt.Sprintf("TKT-%d-%s", millis, suffix))
}
