package postgres

import "errors"

var (
	ErrSwipeNotFound        = errors.New("swipe not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrWebhookEventNotFound = errors.New("webhook event not found")
	ErrDuplicateExternalRef = errors.New("transaction external ref already exists")
)
