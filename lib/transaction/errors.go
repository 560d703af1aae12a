package transaction

import "errors"

var (
	ErrInvalidRecipient      = errors.New("invalid recipient address")
	ErrInvalidAmount         = errors.New("payment amount must be positive")
	ErrPayloadTooLarge       = errors.New("data payload exceeds the data-carrier limit")
	ErrInvalidOutputSet      = errors.New("output set must hold one payment and one data output")
	ErrInvalidFeeRate        = errors.New("fee rate must be positive")
	ErrFundedOutputsMismatch = errors.New("funded transaction does not carry the composed outputs")
	ErrSigningIncomplete     = errors.New("signing incomplete")
	ErrFeeRateBelowTarget    = errors.New("fee rate below target")
	ErrFundingPolicyTooSmall = errors.New("funding policy cannot cover the payment")
	ErrFundsNotSettled       = errors.New("wallet funds did not settle")
	ErrNotConfirmed          = errors.New("transaction not confirmed")
)
