// Package split builds and validates expense splits before submission.
//
// The server owns the authoritative arithmetic; these checks exist so an
// impossible split (exact amounts that miss the total, percentages that
// miss 100) is rejected at the client without a round trip.
package split

import (
	"fmt"
	"math"

	"splitmate/internal/models"
)

// tolerance absorbs floating point noise when comparing sums: exact
// amounts may miss the total by up to a cent, percentages may miss 100 by
// up to 0.01.
const tolerance = 0.01

// Build produces the wire-format splits for the given policy.
// For EQUAL splits only the member IDs matter; for EXACT, amounts maps
// member ID to their share; for PERCENTAGE, percents maps member ID to
// their percentage. The result is validated before being returned.
func Build(typ models.SplitType, amount float64, memberIDs []string, amounts, percents map[string]float64) ([]models.SplitInput, error) {
	splits := make([]models.SplitInput, 0, len(memberIDs))

	switch typ {
	case models.SplitEqual:
		for _, id := range memberIDs {
			splits = append(splits, models.SplitInput{UserID: id})
		}
	case models.SplitExact:
		for _, id := range memberIDs {
			splits = append(splits, models.SplitInput{UserID: id, Amount: amounts[id]})
		}
	case models.SplitPercentage:
		for _, id := range memberIDs {
			splits = append(splits, models.SplitInput{UserID: id, Percentage: percents[id]})
		}
	default:
		return nil, fmt.Errorf("unknown split type %q", typ)
	}

	if err := Validate(typ, amount, splits); err != nil {
		return nil, err
	}
	return splits, nil
}

// Validate checks a split against its policy. A nil error means the split
// is safe to submit.
func Validate(typ models.SplitType, amount float64, splits []models.SplitInput) error {
	if amount <= 0 {
		return fmt.Errorf("expense amount must be positive")
	}
	if len(splits) == 0 {
		return fmt.Errorf("must select at least one member")
	}

	seen := make(map[string]bool, len(splits))
	for _, s := range splits {
		if s.UserID == "" {
			return fmt.Errorf("split entry is missing a member")
		}
		if seen[s.UserID] {
			return fmt.Errorf("member %s appears more than once", s.UserID)
		}
		seen[s.UserID] = true
	}

	switch typ {
	case models.SplitEqual:
		return nil
	case models.SplitExact:
		var total float64
		for _, s := range splits {
			if s.Amount < 0 {
				return fmt.Errorf("split amounts cannot be negative")
			}
			total += s.Amount
		}
		if math.Abs(total-amount) > tolerance {
			return fmt.Errorf("split amounts must equal %.2f, got %.2f", amount, total)
		}
		return nil
	case models.SplitPercentage:
		var total float64
		for _, s := range splits {
			if s.Percentage < 0 {
				return fmt.Errorf("percentages cannot be negative")
			}
			total += s.Percentage
		}
		if math.Abs(total-100) > tolerance {
			return fmt.Errorf("percentages must sum to 100, got %.2f", total)
		}
		return nil
	default:
		return fmt.Errorf("unknown split type %q", typ)
	}
}

// EqualShares divides amount evenly across n members in whole cents, with
// remainder cents going to the first members. The shares always sum to
// amount exactly; this is the display preview for an EQUAL split.
func EqualShares(amount float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("must have at least one member")
	}
	if amount < 0 {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	totalCents := int64(math.Round(amount * 100))
	base := totalCents / int64(n)
	remainder := totalCents % int64(n)

	shares := make([]float64, n)
	for i := range shares {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		shares[i] = float64(cents) / 100
	}
	return shares, nil
}
