package rules

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/scene"
)

// EvalError is a non-fatal error in a rule file, such as a parse error or a
// bad argument to a builtin.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates rule files. Each call to Evaluate gets a fresh sandbox.
// Evaluations on one Engine supersede each other: when a newer call starts
// before an older one returns, the older result is discarded. Use one Engine
// per independent caller.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	// Timeout overrides EvalTimeout when positive.
	Timeout time.Duration

	// Limiter, when set, rejects evaluations with BUSY once its slots are
	// taken.
	Limiter *Limiter
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source against the named components. Builtins such as
// names-matching see comps; connections and patterns may name anything.
//
// Return semantics:
//   - On success: rules, nil, nil
//   - On parse/eval failure: nil, eval errors, nil
//   - On timeout, panic or a full Limiter: nil, nil, error
func (e *Engine) Evaluate(source string, comps []scene.Component) (*Rules, []EvalError, error) {
	if !e.Limiter.acquire() {
		return nil, nil, errors.New(errors.ErrCodeBusy, "too many rule evaluations in flight")
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	names := make([]string, len(comps))
	for i, c := range comps {
		names[i] = c.Name
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer e.Limiter.release()
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: errors.New(errors.ErrCodeInternal, "panic during evaluation: %v", r)}
			}
		}()
		r, evalErrs := evaluate(source, names)
		ch <- evalResult{rules: r, errors: evalErrs}
	}()

	limit := EvalTimeout
	if e.Timeout > 0 {
		limit = e.Timeout
	}
	return waitWithTimeout(ch, gen, &e.mu, &e.generation, limit)
}

// LoadFile reads and evaluates a rule file. Eval errors are folded into a
// single INVALID_RULES error.
func (e *Engine) LoadFile(path string, comps []scene.Component) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "rules %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read rules %s", path)
	}
	r, evalErrs, err := e.Evaluate(string(data), comps)
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, len(evalErrs))
		for i, ee := range evalErrs {
			msgs[i] = ee.Error()
		}
		return nil, errors.New(errors.ErrCodeInvalidRules, "%s: %s", path, strings.Join(msgs, "; "))
	}
	return r, nil
}

func evaluate(source string, names []string) (*Rules, []EvalError) {
	r := newRules()
	if strings.TrimSpace(source) == "" {
		return r, nil
	}

	// Sandbox mode keeps rule files away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, r, names)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return r, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, keeping the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
