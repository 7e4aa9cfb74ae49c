package enums

import "fmt"

// MediaKind defines where an uploaded object is used.
type MediaKind string

const (
	MediaKindProductImage MediaKind = "product_image"
	MediaKindPaymentProof MediaKind = "payment_proof"
)

var validMediaKinds = []MediaKind{
	MediaKindProductImage,
	MediaKindPaymentProof,
}

// String returns the literal string for the kind.
func (m MediaKind) String() string {
	return string(m)
}

// IsValid reports whether the kind is known.
func (m MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ObjectPrefix is the storage folder objects of this kind live under.
func (m MediaKind) ObjectPrefix() string {
	switch m {
	case MediaKindProductImage:
		return "products"
	case MediaKindPaymentProof:
		return "proofs"
	default:
		return "other"
	}
}

// ParseMediaKind converts raw input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	for _, candidate := range validMediaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}
