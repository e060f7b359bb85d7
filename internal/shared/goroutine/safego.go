// Package goroutine starts background work that must never take the process down.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine. A panic in fn is logged under name
// together with its stack and then swallowed.
func SafeGo(log logger.Interface, name string, fn func()) {
	go run(log, name, fn)
}

func run(log logger.Interface, name string, fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Errorw("background task panicked",
			"task", name,
			"panic", fmt.Sprint(r),
			"stack", string(debug.Stack()),
		)
	}()
	fn()
}
