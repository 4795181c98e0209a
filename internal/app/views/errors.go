package views

import "errors"

var ErrViewNotAllowed = errors.New("view not available for role")
