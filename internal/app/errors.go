package service

import "errors"

var (
	// ErrChartNotFound is returned for an unknown chart id.
	ErrChartNotFound = errors.New("chart not found")
	// ErrNotStarted is returned when the service has not been started.
	ErrNotStarted = errors.New("service not started")
	// ErrUnknownSubscriber is returned when unsubscribing an unknown id.
	ErrUnknownSubscriber = errors.New("unknown subscriber")
)
