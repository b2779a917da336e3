package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrNoCheckout         = errors.New("no checkout for this session")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
	ErrPaymentFailed      = errors.New("payment failed")
)
