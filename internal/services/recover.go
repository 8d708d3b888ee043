package services

import (
	"fmt"
	"strings"
)

// recoverTo turns a panic in a worker goroutine into an error on errp.
// Use as: defer recoverTo(&err, "op"). Only the first line of the panic
// value is kept; singleflight appends a stack trace to re-raised panics.
func recoverTo(errp *error, op string) {
	if r := recover(); r != nil {
		msg, _, _ := strings.Cut(fmt.Sprint(r), "\n")
		*errp = fmt.Errorf("internal error in %s: %v", op, msg)
	}
}
