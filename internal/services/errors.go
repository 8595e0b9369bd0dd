package services

import "errors"

var (
	// ErrForbidden means the caller is authenticated but does not own
	// the resource they are trying to change.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidOtp means the delivery OTP is wrong or expired.
	ErrInvalidOtp = errors.New("invalid or expired otp")
)
