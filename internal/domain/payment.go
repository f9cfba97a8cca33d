package domain

// PaymentResult is the outcome reported to the storefront result page.
type PaymentResult string

const (
	PaymentSuccess PaymentResult = "success"
	PaymentFail    PaymentResult = "fail"
	PaymentInvalid PaymentResult = "invalid"
	PaymentError   PaymentResult = "error"
	// PaymentPending means the buyer finished checkout but the funds have not
	// cleared yet. The order stays pending until the gateway reports back.
	PaymentPending PaymentResult = "pending"
)

type Panel string

const (
	PanelSuccess Panel = "success"
	PanelFailure Panel = "failure"
	PanelError   Panel = "error"
	PanelPending Panel = "pending"
)

// ResultView tells the result page which panel to render and whether the
// cart must be reloaded once.
type ResultView struct {
	Panel       Panel  `json:"panel"`
	RefreshCart bool   `json:"refreshCart"`
	Message     string `json:"message"`
}

// ResultFor maps a payment result to the page it renders. Unrecognised values
// render the error panel.
func ResultFor(r PaymentResult) ResultView {
	switch r {
	case PaymentSuccess:
		return ResultView{Panel: PanelSuccess, RefreshCart: true, Message: "Payment completed. Thank you for your order."}
	case PaymentFail:
		return ResultView{Panel: PanelFailure, Message: "Payment was not completed. Your order has been released."}
	case PaymentInvalid:
		return ResultView{Panel: PanelError, Message: "We could not find that order."}
	case PaymentPending:
		return ResultView{Panel: PanelPending, Message: "Your payment is being processed. We will email you once it clears."}
	default:
		return ResultView{Panel: PanelError, Message: "Something went wrong while confirming your payment."}
	}
}

// GatewayState is the normalized state of a hosted checkout session.
type GatewayState string

const (
	GatewayPaid    GatewayState = "paid"
	GatewayUnpaid  GatewayState = "unpaid"
	GatewayExpired GatewayState = "expired"
	GatewayOpen    GatewayState = "open"
	// GatewayProcessing is a completed session whose payment has not cleared,
	// such as a bank debit awaiting confirmation.
	GatewayProcessing GatewayState = "processing"
)

// ResultForGateway maps a session state onto the order transition it causes.
// An open session that is still unpaid is treated as a failed attempt. A
// processing session leaves the order untouched.
func ResultForGateway(s GatewayState) PaymentResult {
	switch s {
	case GatewayPaid:
		return PaymentSuccess
	case GatewayProcessing:
		return PaymentPending
	case GatewayUnpaid, GatewayExpired, GatewayOpen:
		return PaymentFail
	default:
		return PaymentError
	}
}

type DashboardStats struct {
	Users         int64                 `json:"users"`
	Tours         int64                 `json:"tours"`
	Hotels        int64                 `json:"hotels"`
	OrdersByState map[OrderStatus]int64 `json:"ordersByStatus"`
	PaidRevenue   int64                 `json:"paidRevenue"`
}
