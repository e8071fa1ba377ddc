package ir

import "fmt"

// Ownership classifies how a value participates in the linear lifetime
// discipline.
type Ownership uint8

const (
	// OwnershipNone marks trivial values with no lifetime obligations.
	OwnershipNone Ownership = iota
	// OwnershipOwned marks values that must be consumed exactly once.
	OwnershipOwned
	// OwnershipGuaranteed marks borrowed values kept alive by their base.
	OwnershipGuaranteed
	// OwnershipUnowned marks values held without a lifetime claim.
	OwnershipUnowned
)

func (o Ownership) String() string {
	switch o {
	case OwnershipNone:
		return "none"
	case OwnershipOwned:
		return "owned"
	case OwnershipGuaranteed:
		return "guaranteed"
	case OwnershipUnowned:
		return "unowned"
	default:
		return fmt.Sprintf("Ownership(%d)", o)
	}
}
