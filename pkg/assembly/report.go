package assembly

import (
	"fmt"
	"strings"

	"github.com/chazu/trestle/pkg/scene"
)

// Severity indicates how serious a violation is.
type Severity int

const (
	// SeverityWarning marks a problem the validator degraded around.
	SeverityWarning Severity = iota
	// SeverityError marks a structural property the output does not satisfy.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts "error" or "warning".
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Pass names a validator stage.
type Pass string

const (
	PassInput        Pass = "input"
	PassGround       Pass = "ground"
	PassConnectivity Pass = "connectivity"
	PassSupport      Pass = "support"
	PassSnap         Pass = "snap"
	PassPattern      Pass = "pattern"
)

// Violation is a problem found during validation. Violations never abort a
// run; they are collected and returned with the repaired components.
type Violation struct {
	Pass      Pass     `json:"pass"`
	Component string   `json:"component,omitempty"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

// Error implements the error interface so violations can be wrapped and
// logged like any other failure.
func (v Violation) Error() string {
	if v.Component != "" {
		return fmt.Sprintf("%s %s: %s: %s", v.Severity, v.Pass, v.Component, v.Message)
	}
	return fmt.Sprintf("%s %s: %s", v.Severity, v.Pass, v.Message)
}

// Adjustment records one change a pass made to a component.
type Adjustment struct {
	Pass      Pass       `json:"pass"`
	Component string     `json:"component"`
	Detail    string     `json:"detail"`
	Delta     scene.Vec3 `json:"delta"`
}

func (a Adjustment) String() string {
	return fmt.Sprintf("%s: %s: %s", a.Pass, a.Component, a.Detail)
}

// Report collects everything a validation run did and found.
type Report struct {
	RunID       string       `json:"run_id,omitempty"`
	Adjustments []Adjustment `json:"adjustments"`
	Violations  []Violation  `json:"violations"`
}

func (r *Report) adjust(pass Pass, component string, delta scene.Vec3, format string, args ...any) {
	r.Adjustments = append(r.Adjustments, Adjustment{
		Pass:      pass,
		Component: component,
		Detail:    fmt.Sprintf(format, args...),
		Delta:     delta,
	})
}

func (r *Report) warn(pass Pass, component, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Pass:      pass,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
		Severity:  SeverityWarning,
	})
}

func (r *Report) fail(pass Pass, component, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Pass:      pass,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
		Severity:  SeverityError,
	})
}

// merge appends o's entries to r.
func (r *Report) merge(o Report) {
	r.Adjustments = append(r.Adjustments, o.Adjustments...)
	r.Violations = append(r.Violations, o.Violations...)
}

// HasErrors returns true if any violation has error severity.
func (r Report) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity violations.
func (r Report) Errors() []Violation {
	return r.filter(SeverityError)
}

// Warnings returns only the warning-severity violations.
func (r Report) Warnings() []Violation {
	return r.filter(SeverityWarning)
}

func (r Report) filter(s Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}

// Changed reports whether any pass modified the components.
func (r Report) Changed() bool {
	return len(r.Adjustments) > 0
}

// String returns a human-readable summary of the report.
func (r Report) String() string {
	if len(r.Adjustments) == 0 && len(r.Violations) == 0 {
		return "valid: no changes"
	}
	var b strings.Builder
	for _, a := range r.Adjustments {
		fmt.Fprintf(&b, "adjust %s\n", a)
	}
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "%s\n", v.Error())
	}
	return strings.TrimRight(b.String(), "\n")
}
