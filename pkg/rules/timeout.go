package rules

import (
	"sync"
	"time"

	"github.com/chazu/trestle/pkg/errors"
)

// EvalTimeout bounds one Evaluate call unless Engine.Timeout says otherwise.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	rules  *Rules
	errors []EvalError
	err    error
}

// waitWithTimeout returns the first result on ch, or a TIMEOUT error once
// limit elapses. A result whose generation is no longer the engine's current
// one is dropped.
//
// A timed-out interpreter is not interrupted. Its goroutine runs on until the
// program ends and whatever it sends is ignored; a Limiter bounds how many
// such goroutines can exist.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
	limit time.Duration,
) (*Rules, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		stale := gen != *currentGen
		mu.Unlock()
		if stale {
			return nil, nil, errors.New(errors.ErrCodeTimeout, "evaluation superseded by newer request")
		}
		return res.rules, res.errors, res.err

	case <-timer.C:
		return nil, nil, errors.New(errors.ErrCodeTimeout, "evaluation timed out after %s", limit)
	}
}

// Limiter caps the number of interpreter goroutines alive at once, across
// every Engine sharing it. A slot is released when the goroutine returns, not
// when its caller gives up waiting, so runaway rule files keep their slot.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter allows n concurrent evaluations. n below 1 is treated as 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// InFlight returns the number of evaluations holding a slot.
func (l *Limiter) InFlight() int {
	if l == nil {
		return 0
	}
	return len(l.slots)
}

func (l *Limiter) acquire() bool {
	if l == nil {
		return true
	}
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l *Limiter) release() {
	if l != nil {
		<-l.slots
	}
}
