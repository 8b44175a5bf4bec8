package enums

import "fmt"

// ProductType describes the allowed values for the `type` column in products.
// Free-tier products cap how many tokens may be applied; the cash remainder
// is settled out of band.
type ProductType string

const (
	ProductTypeStandard  ProductType = "standard"
	ProductTypePromotion ProductType = "promotion"
	ProductTypeFree      ProductType = "free"
)

var validProductTypes = []ProductType{
	ProductTypeStandard,
	ProductTypePromotion,
	ProductTypeFree,
}

// IsValid reports whether the value matches the canonical product type enum.
func (p ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductType converts the raw string to ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
