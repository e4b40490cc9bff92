package subscription

import (
	"fmt"
	"strings"
)

// Tier is a subscription level. Tiers are totally ordered: free < basic < pro.
type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

// Tiers lists all tiers in ascending order.
var Tiers = []Tier{TierFree, TierBasic, TierPro}

// Monthly generation limits per tier.
const (
	FreeLimit  = 10
	BasicLimit = 100
	ProLimit   = 400
)

// ParseTier parses a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
}

func (t Tier) Valid() bool {
	return t == TierFree || t == TierBasic || t == TierPro
}

// Paid reports whether the tier is purchasable.
func (t Tier) Paid() bool {
	return t == TierBasic || t == TierPro
}

func (t Tier) rank() int {
	switch t {
	case TierBasic:
		return 1
	case TierPro:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether t grants everything required grants.
func (t Tier) AtLeast(required Tier) bool {
	return t.rank() >= required.rank()
}

// Limit returns the usage ceiling of the tier. Unknown tiers get the free
// limit.
func (t Tier) Limit() int {
	switch t {
	case TierBasic:
		return BasicLimit
	case TierPro:
		return ProLimit
	default:
		return FreeLimit
	}
}

// Title returns the display name, e.g. "Pro".
func (t Tier) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

func (t Tier) String() string {
	return string(t)
}
