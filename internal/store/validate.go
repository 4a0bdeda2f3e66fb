package store

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
)

// ValidatePattern checks that an alias pattern or exclusion prefix is stored
// in its case-normalized form.
func ValidatePattern(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("empty pattern")
	}
	if p != strings.ToUpper(p) {
		return fmt.Errorf("invalid pattern (must be uppercase): %q", p)
	}
	return nil
}

// ValidateAliases rejects alias sets where a description could resolve to
// more than one vendor: duplicate pattern text, an EQUAL pattern matched by
// a LIKE pattern, or a wildcard-free LIKE pattern matched by another LIKE.
// Overlaps between two wildcard LIKE patterns are caught when a lookup
// returns more than one row.
func ValidateAliases(aliases []model.VendorAlias) error {
	seen := make(map[string]model.VendorAlias, len(aliases))
	for _, a := range aliases {
		if err := ValidatePattern(a.Pattern); err != nil {
			return fmt.Errorf("alias for %s: %w", a.Vendor.Name, err)
		}
		if prev, ok := seen[a.Pattern]; ok {
			return fmt.Errorf("%w: pattern %q used by %s and %s", ErrAmbiguousAlias, a.Pattern, prev.Vendor.Name, a.Vendor.Name)
		}
		seen[a.Pattern] = a
	}

	for _, a := range aliases {
		literal := a.MatchOperation == model.MatchEqual || !HasWildcards(a.Pattern)
		if !literal {
			continue
		}
		text := a.Pattern
		if a.MatchOperation == model.MatchLike {
			text = unescapeLike(a.Pattern)
		}
		for _, b := range aliases {
			if b.Pattern == a.Pattern || b.MatchOperation != model.MatchLike {
				continue
			}
			if LikeMatch(b.Pattern, text) {
				return fmt.Errorf("%w: %q (%s) also matches like %q (%s)",
					ErrAmbiguousAlias, a.Pattern, a.Vendor.Name, b.Pattern, b.Vendor.Name)
			}
		}
	}
	return nil
}

// ValidatePeriodicPayments rejects two payments with the same (currency, amount)
// or two payments for one vendor.
func ValidatePeriodicPayments(payments []model.PeriodicPayment) error {
	type key struct {
		currency model.Currency
		amount   int64
	}
	byKey := make(map[key]model.PeriodicPayment, len(payments))
	byVendor := make(map[string]bool, len(payments))
	for _, p := range payments {
		k := key{p.Currency, p.Amount}
		if prev, ok := byKey[k]; ok {
			return fmt.Errorf("%w: %s %d used by %s and %s",
				ErrDuplicatePeriodicPayment, p.Currency, p.Amount, prev.Vendor.Name, p.Vendor.Name)
		}
		byKey[k] = p
		if byVendor[p.Vendor.Name] {
			return fmt.Errorf("%w: vendor %s already has a periodic payment", ErrDuplicatePeriodicPayment, p.Vendor.Name)
		}
		byVendor[p.Vendor.Name] = true
	}
	return nil
}

func unescapeLike(p string) string {
	var b strings.Builder
	escaped := false
	for _, r := range p {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
