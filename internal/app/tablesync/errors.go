package tablesync

import "errors"

// ErrNotFailed is returned when retrying or discarding an order that is still in flight or confirmed
var ErrNotFailed = errors.New("pending order has not failed")
