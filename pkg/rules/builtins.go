package rules

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keywords rewritten into string literals.
const kwPrefix = "__kw_"

// preprocessSource rewrites rule-file syntax into something zygomys reads:
//
//   - :keyword becomes the string literal "__kw_keyword"
//   - kebab-case identifiers become snake_case (names-matching -> names_matching)
//   - ; comments become // comments
//
// String literals pass through untouched.
func preprocessSource(source string) string {
	p := &preprocessor{src: source, out: make([]byte, 0, len(source)+len(source)/4)}
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '"':
			p.copyQuoted('"', true)
		case c == '`':
			p.copyQuoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.peekIs(isLetter):
			p.keyword()
		case c == '-' && p.pos > 0 && isIdentChar(p.src[p.pos-1]) && p.peekIs(isLetter):
			p.out = append(p.out, '_')
			p.pos++
		default:
			p.out = append(p.out, c)
			p.pos++
		}
	}
	return string(p.out)
}

type preprocessor struct {
	src string
	pos int
	out []byte
}

func (p *preprocessor) peekIs(pred func(byte) bool) bool {
	return p.pos+1 < len(p.src) && pred(p.src[p.pos+1])
}

func (p *preprocessor) copyQuoted(quote byte, escapes bool) {
	p.out = append(p.out, quote)
	p.pos++
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		if escapes && p.src[p.pos] == '\\' && p.pos+1 < len(p.src) {
			p.out = append(p.out, p.src[p.pos], p.src[p.pos+1])
			p.pos += 2
			continue
		}
		p.out = append(p.out, p.src[p.pos])
		p.pos++
	}
	if p.pos < len(p.src) {
		p.out = append(p.out, quote)
		p.pos++
	}
}

func (p *preprocessor) comment() {
	p.out = append(p.out, '/', '/')
	for p.pos < len(p.src) && p.src[p.pos] == ';' {
		p.pos++
	}
	end := strings.IndexByte(p.src[p.pos:], '\n')
	if end < 0 {
		end = len(p.src) - p.pos
	}
	p.out = append(p.out, p.src[p.pos:p.pos+end]...)
	p.pos += end
}

func (p *preprocessor) keyword() {
	start := p.pos + 1
	end := start
	for end < len(p.src) && isKWChar(p.src[end]) {
		end++
	}
	p.out = append(p.out, '"')
	p.out = append(p.out, kwPrefix...)
	p.out = append(p.out, p.src[start:end]...)
	p.out = append(p.out, '"')
	p.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Argument handling
// ---------------------------------------------------------------------------

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword pairs from positional arguments. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	out := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keywordName(args[i])
		if !ok {
			out.positional = append(out.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			out.kw[name] = args[i+1]
			i++
		} else {
			out.kw[name] = zygo.SexpNull
		}
	}
	return out
}

func keywordName(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", s.SexpString(nil))
}

// toKeywordString accepts a keyword (:x) or a plain string ("x").
func toKeywordString(s zygo.Sexp) (string, error) {
	if name, ok := keywordName(s); ok {
		return name, nil
	}
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected keyword or string, got %s", s.SexpString(nil))
}

// toNames flattens strings and (nested) lists of strings.
func toNames(args []zygo.Sexp) ([]string, error) {
	var out []string
	for _, a := range args {
		switch v := a.(type) {
		case *zygo.SexpStr:
			out = append(out, v.S)
		case *zygo.SexpPair:
			items, err := zygo.ListToArray(v)
			if err != nil {
				return nil, err
			}
			sub, err := toNames(items)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		case *zygo.SexpArray:
			sub, err := toNames(v.Val)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		case *zygo.SexpSentinel:
			if v != zygo.SexpNull {
				return nil, fmt.Errorf("expected component name, got %s", a.SexpString(nil))
			}
		default:
			return nil, fmt.Errorf("expected component name, got %s", a.SexpString(nil))
		}
	}
	return out, nil
}

func nameList(names []string) zygo.Sexp {
	items := make([]zygo.Sexp, len(names))
	for i, n := range names {
		items[i] = &zygo.SexpStr{S: n}
	}
	return zygo.MakeList(items)
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

type builtin = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// numberSetter declares a builtin (name value) storing value into *dst.
func numberSetter(dst **float64, convert func(float64) float64) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("%s takes one number, got %d arguments", name, len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
		}
		if f <= 0 {
			return zygo.SexpNull, fmt.Errorf("%s must be positive, got %v", name, f)
		}
		f = convert(f)
		*dst = &f
		return zygo.SexpNull, nil
	}
}

func flagSetter(dst **bool) builtin {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v := true
		if len(args) > 0 {
			b, err := toBool(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			v = b
		}
		*dst = &v
		return zygo.SexpNull, nil
	}
}

func identity(f float64) float64 { return f }

// registerBuiltins installs the rule-file vocabulary. Declarations write into
// r; queries read names, the components of the assembly under validation.
func registerBuiltins(env *zygo.Zlisp, r *Rules, names []string) {

	// (connect "Chair_Backrest" "Chair_Seat")
	// (connect "Table_Top" (names-matching "leg"))
	env.AddFunction("connect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("connect requires a component and at least one target")
		}
		src, err := toNames(args[:1])
		if err != nil || len(src) != 1 {
			return zygo.SexpNull, fmt.Errorf("connect: first argument must be a single component name")
		}
		targets, err := toNames(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: %w", err)
		}
		for _, t := range targets {
			r.Connections.Add(src[0], t)
		}
		return zygo.SexpNull, nil
	})

	// (mirror "Chair_Arm_Left" "Chair_Arm_Right" :axis :x)
	env.AddFunction("mirror", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		members, err := toNames(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mirror: %w", err)
		}
		if len(members) < 2 {
			return zygo.SexpNull, fmt.Errorf("mirror needs at least two members, got %d", len(members))
		}
		spec := assembly.PatternSpec{Kind: assembly.PatternMirror, Members: members}
		if v, ok := pa.kw["axis"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror: axis: %w", err)
			}
			if spec.Axis, err = assembly.ParseAxis(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("mirror: %w", err)
			}
		}
		r.Patterns = append(r.Patterns, spec)
		return zygo.SexpNull, nil
	})

	// (radial "Stool_Leg_1" "Stool_Leg_2" "Stool_Leg_3")
	env.AddFunction("radial", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		members, err := toNames(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("radial: %w", err)
		}
		if len(members) < 3 {
			return zygo.SexpNull, fmt.Errorf("radial needs at least three members, got %d", len(members))
		}
		r.Patterns = append(r.Patterns, assembly.PatternSpec{Kind: assembly.PatternRadial, Members: members})
		return zygo.SexpNull, nil
	})

	env.AddFunction("tolerance", numberSetter(&r.Tolerance, identity))
	env.AddFunction("support_reach", numberSetter(&r.SupportReach, identity))
	env.AddFunction("pattern_tolerance", numberSetter(&r.PatternTolerance, identity))
	env.AddFunction("angle_tolerance_deg", numberSetter(&r.AngleTolerance, func(deg float64) float64 {
		return deg * math.Pi / 180
	}))
	env.AddFunction("rerun", flagSetter(&r.Rerun))
	env.AddFunction("bridge_fixed_pairs", flagSetter(&r.BridgeFixedPairs))

	// (names-matching "leg" "foot") -> components whose name contains any
	// of the substrings, case-insensitively, in assembly order.
	env.AddFunction("names_matching", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		subs, err := toNames(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("names-matching: %w", err)
		}
		var out []string
		for _, n := range names {
			lower := strings.ToLower(n)
			for _, s := range subs {
				if strings.Contains(lower, strings.ToLower(s)) {
					out = append(out, n)
					break
				}
			}
		}
		return nameList(out), nil
	})

	// (names-with-role :ground) ; also :surface and :back
	env.AddFunction("names_with_role", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("names-with-role takes one role keyword")
		}
		role, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("names-with-role: %w", err)
		}
		var match func(string) bool
		switch role {
		case "ground":
			match = scene.IsGroundContact
		case "surface":
			match = scene.IsSupportedSurface
		case "back":
			match = scene.IsBackOrArm
		default:
			return zygo.SexpNull, fmt.Errorf("names-with-role: unknown role %q, expected ground, surface or back", role)
		}
		var out []string
		for _, n := range names {
			if match(n) {
				out = append(out, n)
			}
		}
		return nameList(out), nil
	})
}
