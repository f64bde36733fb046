package domain

import "fmt"

// Provider identifies an external wallet/payment service.
type Provider string

const (
	ProviderFincra   Provider = "FINCRA"
	ProviderLNbits   Provider = "LNBITS"
	ProviderPaystack Provider = "PAYSTACK"
)

// ParseProvider validates a raw provider string.
func ParseProvider(raw string) (Provider, error) {
	switch Provider(raw) {
	case ProviderFincra, ProviderLNbits, ProviderPaystack:
		return Provider(raw), nil
	}
	return "", fmt.Errorf("unknown provider: %q", raw)
}
