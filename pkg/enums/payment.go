package enums

// PaymentProvider identifies the external processor for a checkout attempt.
type PaymentProvider string

const (
	PaymentProviderPayPal         PaymentProvider = "paypal"
	PaymentProviderPaymobCard     PaymentProvider = "paymob_card"
	PaymentProviderPaymobWallet   PaymentProvider = "paymob_wallet"
	PaymentProviderCashOnDelivery PaymentProvider = "cod"
)

// IsValid reports whether the provider is supported.
func (p PaymentProvider) IsValid() bool {
	switch p {
	case PaymentProviderPayPal, PaymentProviderPaymobCard, PaymentProviderPaymobWallet, PaymentProviderCashOnDelivery:
		return true
	}
	return false
}

// PaymentStatus is the normalized capture outcome across providers.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)
