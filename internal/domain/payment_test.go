package domain

import "testing"

func TestResultFor(t *testing.T) {
	tests := []struct {
		in      PaymentResult
		panel   Panel
		refresh bool
	}{
		{PaymentSuccess, PanelSuccess, true},
		{PaymentFail, PanelFailure, false},
		{PaymentInvalid, PanelError, false},
		{PaymentError, PanelError, false},
		{PaymentPending, PanelPending, false},
		{"bogus", PanelError, false},
	}
	for _, tc := range tests {
		got := ResultFor(tc.in)
		if got.Panel != tc.panel || got.RefreshCart != tc.refresh {
			t.Errorf("ResultFor(%q) = %+v", tc.in, got)
		}
		if got.Message == "" {
			t.Errorf("ResultFor(%q) has no message", tc.in)
		}
	}
}

func TestResultForGateway(t *testing.T) {
	cases := map[GatewayState]PaymentResult{
		GatewayPaid:       PaymentSuccess,
		GatewayUnpaid:     PaymentFail,
		GatewayExpired:    PaymentFail,
		GatewayOpen:       PaymentFail,
		GatewayProcessing: PaymentPending,
		"weird":           PaymentError,
	}
	for in, want := range cases {
		if got := ResultForGateway(in); got != want {
			t.Errorf("ResultForGateway(%q) = %q, want %q", in, got, want)
		}
	}
}
