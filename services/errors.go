package services

import "errors"

// Engine failure taxonomy. Controllers match these with errors.Is and map
// them onto HTTP statuses; engines never see the transport.
var (
	// ErrUnauthorized covers missing/invalid credentials and unknown users.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenExpired is an expired signature on an otherwise valid token.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is a malformed token, bad signature, or wrong type claim.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrNotFound is a missing challenge, store, coupon, or setting.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is missing QR/location configuration on the target entity.
	ErrInvalidState = errors.New("invalid state")
	// ErrOutOfRange is a geofence failure.
	ErrOutOfRange = errors.New("out of range")
	// ErrAlreadyClaimed is a same-day repeat clear of the same challenge.
	ErrAlreadyClaimed = errors.New("already claimed")
	// ErrAlreadyUsed is a repeat redemption of a consumed coupon.
	ErrAlreadyUsed = errors.New("already used")
	// ErrRateLimited is the daily clear cap or the stamp scan cooldown.
	ErrRateLimited = errors.New("rate limited")
	// ErrValidation is a malformed request field.
	ErrValidation = errors.New("validation failed")
)
