package tts

import (
	"sync"
	"sync/atomic"
)

// engineClaim is held by the controller that currently has an open engine.
// The engine allows one active handle per process.
var engineClaim atomic.Bool

func claimEngine() bool {
	return engineClaim.CompareAndSwap(false, true)
}

func releaseEngine() {
	engineClaim.Store(false)
}

var (
	sessionOnce sync.Once
	session     *Controller
)

// Session returns the process-wide controller, creating it on first use.
// Options are only applied by the call that creates it.
func Session(opts ...Option) *Controller {
	sessionOnce.Do(func() {
		session = NewController(opts...)
	})
	return session
}
