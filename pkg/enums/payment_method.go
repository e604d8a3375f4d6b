package enums

import "fmt"

// PaymentMethod identifies how a buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodEsewa  PaymentMethod = "ESEWA"
	PaymentMethodKhalti PaymentMethod = "KHALTI"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodEsewa,
	PaymentMethodKhalti,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsGateway reports whether the method settles through an external gateway
// redirect rather than on delivery.
func (p PaymentMethod) IsGateway() bool {
	return p == PaymentMethodEsewa || p == PaymentMethodKhalti
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
