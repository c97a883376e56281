package enums

import "fmt"

// PriceTier selects which part price column a business buys at.
type PriceTier string

const (
	PriceTierT1 PriceTier = "T1"
	PriceTierT2 PriceTier = "T2"
	PriceTierT3 PriceTier = "T3"
)

var validPriceTiers = []PriceTier{PriceTierT1, PriceTierT2, PriceTierT3}

func (p PriceTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceTier.
func (p PriceTier) IsValid() bool {
	for _, candidate := range validPriceTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceTier converts raw input into a PriceTier.
func ParsePriceTier(value string) (PriceTier, error) {
	for _, candidate := range validPriceTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price tier %q", value)
}
