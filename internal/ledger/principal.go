package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Principal identifies a caller, a manager or a recipient.
//
// Principals are account addresses. The zero address never identifies
// a valid caller.
type Principal = common.Address

// ParsePrincipal parses a hex encoded address with or without 0x prefix.
func ParsePrincipal(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return Principal{}, ErrInvalidPrincipal
	}

	p := common.HexToAddress(s)
	if p == (Principal{}) {
		return Principal{}, ErrInvalidPrincipal
	}

	return p, nil
}
