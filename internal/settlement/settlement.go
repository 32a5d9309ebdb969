// Package settlement is the boundary to the external payment rail.
package settlement

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/punchamoorthee/roomledger/internal/domain"
)

// Gateway is the payment rail as the ledger sees it.
//
// SubmitPayment returns a result whenever the rail resolved the payment, with
// Success false for a decline. A returned error wrapping
// domain.ErrSettlementIndeterminate means the payment may or may not have
// moved.
type Gateway interface {
	Identity(ctx context.Context) (string, error)
	SubmitPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error)
	Disconnect(ctx context.Context) error
}

// AddressLength is the length of a settlement network account id.
const AddressLength = 56

// placeholderPrefix marks the dummy owner addresses used in demo data.
const placeholderPrefix = "GXXXXXX"

var addressPattern = regexp.MustCompile(`^G[A-Z2-7]{55}$`)

// ValidAddress reports whether addr has the shape of a payable account id.
func ValidAddress(addr string) bool {
	return len(addr) == AddressLength &&
		!strings.HasPrefix(addr, placeholderPrefix) &&
		addressPattern.MatchString(addr)
}

// Resolver picks the destination of a room's payments.
type Resolver struct {
	Default string
}

func NewResolver(defaultAddress string) (*Resolver, error) {
	if !ValidAddress(defaultAddress) {
		return nil, fmt.Errorf("default settlement address %q is not a valid account id", defaultAddress)
	}
	return &Resolver{Default: defaultAddress}, nil
}

// Resolve returns owner when it is payable, otherwise the default address
// with fallback set.
func (r *Resolver) Resolve(owner string) (addr string, fallback bool) {
	if ValidAddress(owner) {
		return owner, false
	}
	return r.Default, true
}

// Memo describes a rental for the payment memo, cut to at most maxBytes
// without splitting a UTF-8 sequence.
func Memo(title string, days, maxBytes int) string {
	memo := fmt.Sprintf("%dd %s", days, strings.TrimSpace(title))
	if len(memo) <= maxBytes {
		return memo
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(memo[cut]) {
		cut--
	}
	return strings.TrimSpace(memo[:cut])
}
