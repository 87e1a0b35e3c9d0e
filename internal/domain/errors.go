package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNotConnected     = errors.New("google account not connected")
	ErrNoSubscription   = errors.New("no subscription found")
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrNoEmail          = errors.New("email not provided by google")
)
