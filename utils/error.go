package utils

import "errors"

// ErrOrderNotFound distinguishes "no such row" from a store failure; scans
// treat the former as a skip and the latter as a counted error.
var ErrOrderNotFound = errors.New("order not found")
