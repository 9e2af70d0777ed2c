package enums

import "testing"

func TestOrderStatusIsValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		if !s.IsValid() {
			t.Errorf("expected %q valid", s)
		}
	}
	if OrderStatus("returned").IsValid() {
		t.Error("unknown status accepted")
	}
}

func TestPaymentProviderIsValid(t *testing.T) {
	for _, p := range []PaymentProvider{PaymentProviderPayPal, PaymentProviderPaymobCard, PaymentProviderPaymobWallet, PaymentProviderCashOnDelivery} {
		if !p.IsValid() {
			t.Errorf("expected %q valid", p)
		}
	}
	if PaymentProvider("stripe").IsValid() {
		t.Error("unknown provider accepted")
	}
}

func TestPaymentStatusValues(t *testing.T) {
	if PaymentStatusPending != "pending" || PaymentStatusCompleted != "completed" || PaymentStatusFailed != "failed" {
		t.Error("payment status wire values changed")
	}
}

func TestUserRoleIsValid(t *testing.T) {
	if !UserRoleCustomer.IsValid() || !UserRoleAdmin.IsValid() {
		t.Error("known roles rejected")
	}
	if UserRole("manager").IsValid() {
		t.Error("unknown role accepted")
	}
}
