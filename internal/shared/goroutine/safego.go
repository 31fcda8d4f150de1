// Package goroutine provides utilities for safely launching goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// SafeGo launches fn in a goroutine. A panic is logged with its stack trace
// instead of crashing the process.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer Recover(log, name, nil)
		fn()
	}()
}

// Recover is meant to be deferred. It swallows a panic, logs it and, when
// onPanic is set, hands the recovered value over so callers can turn it into
// an error result.
func Recover(log logger.Interface, name string, onPanic func(r any)) {
	r := recover()
	if r == nil {
		return
	}
	log.Errorw("goroutine panicked",
		"goroutine", name,
		"panic", fmt.Sprintf("%v", r),
		"stack", string(debug.Stack()),
	)
	if onPanic != nil {
		onPanic(r)
	}
}
