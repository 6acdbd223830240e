package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNoOrderBook = errors.New("order book not available")
	ErrRateLimited = errors.New("rate limited")
)
