package args

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/units"
)

var (
	identRegex   = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	keywordRegex = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*(.+)$`)
	sliceRegex   = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\[([^\]]*)\]$`)
	declRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\((.*)\)$`)
)

// ParseAll parses every value, stopping at the first error.
func ParseAll(values []config.Value) ([]Arg, error) {
	out := make([]Arg, 0, len(values))
	for _, v := range values {
		a, err := Parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Parse converts a raw document value into a typed argument.
func Parse(v config.Value) (Arg, error) {
	switch v.Kind {
	case config.Null:
		return Arg{Kind: None, Raw: "null"}, nil
	case config.Number:
		return Arg{Kind: Number, Raw: v.Text(), Value: v.Num}, nil
	case config.Bool:
		a := Arg{Kind: Number, Raw: v.Text()}
		if v.Bool {
			a.Value = 1
		}
		return a, nil
	case config.String:
		a, err := parseString(strings.TrimSpace(v.Str))
		if err != nil {
			return Arg{}, fmt.Errorf("argument %q: %w", v.Str, err)
		}
		return a, nil
	default:
		return Arg{}, fmt.Errorf("argument %s: a %s cannot be passed to a processor", v.Text(), v.Kind)
	}
}

func parseString(s string) (Arg, error) {
	if s == "" {
		return Arg{}, fmt.Errorf("empty argument")
	}
	if m := keywordRegex.FindStringSubmatch(s); m != nil {
		a, err := parseValue(strings.TrimSpace(m[2]))
		if err != nil {
			return Arg{}, err
		}
		a.Keyword = m[1]
		a.Raw = s
		return a, nil
	}
	a, err := parseValue(s)
	if err != nil {
		return Arg{}, err
	}
	a.Raw = s
	return a, nil
}

func parseValue(s string) (Arg, error) {
	switch {
	case s == "None" || s == "null":
		return Arg{Kind: None}, nil
	case isQuoted(s):
		return Arg{Kind: Text, Text: s[1 : len(s)-1]}, nil
	case identRegex.MatchString(s):
		return Arg{Kind: Var, Name: s}, nil
	}
	if m := sliceRegex.FindStringSubmatch(s); m != nil {
		return parseSlice(m[1], m[2])
	}
	if m := declRegex.FindStringSubmatch(s); m != nil {
		return parseDecl(m[1], m[2])
	}

	e, err := units.Parse(s)
	if err != nil {
		return Arg{}, err
	}
	if !e.PeriodDependent() && len(e.Params()) == 0 {
		f, err := e.Eval(0, nil)
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: Number, Value: f}, nil
	}
	return Arg{Kind: Expr, Expr: e}, nil
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	q := s[0]
	return (q == '\'' || q == '"') && s[len(s)-1] == q && !strings.ContainsRune(s[1:len(s)-1], rune(q))
}

func parseSlice(name, body string) (Arg, error) {
	parts := strings.Split(body, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Arg{}, fmt.Errorf("slice of %q must be written [start:stop] or [start:stop:step]", name)
	}
	a := Arg{Kind: Slice, Name: name}
	bounds := []**units.Expr{&a.Start, &a.Stop, &a.Step}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		e, err := units.Parse(p)
		if err != nil {
			return Arg{}, fmt.Errorf("slice bound %q: %w", p, err)
		}
		*bounds[i] = e
	}
	return a, nil
}

func parseDecl(name, body string) (Arg, error) {
	a := Arg{Kind: Decl, Name: name}
	body = strings.TrimSpace(body)
	if body == "" || body == "()" {
		return a, nil
	}

	positional := 0
	for _, item := range splitTopLevel(body) {
		item = strings.TrimSpace(item)
		if m := keywordRegex.FindStringSubmatch(item); m != nil {
			if err := a.setDeclOption(m[1], strings.TrimSpace(m[2])); err != nil {
				return Arg{}, err
			}
			continue
		}
		switch positional {
		case 0:
			if err := a.setDeclOption("shape", item); err != nil {
				return Arg{}, err
			}
		case 1:
			if err := a.setDeclOption("kind", item); err != nil {
				return Arg{}, err
			}
		default:
			return Arg{}, fmt.Errorf("declaration of %q takes at most a length and a kind", name)
		}
		positional++
	}
	return a, nil
}

func (a *Arg) setDeclOption(key, value string) error {
	switch key {
	case "shape", "len", "length":
		value = strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
		value = strings.TrimSuffix(strings.TrimSpace(value), ",")
		if value == "" {
			a.Length = nil
			return nil
		}
		e, err := units.Parse(value)
		if err != nil {
			return fmt.Errorf("declaration length %q: %w", value, err)
		}
		a.Length = e
	case "kind", "dtype":
		a.ElemKind = unquote(value)
	case "unit", "units":
		a.Unit = unquote(value)
	case "vector_len":
		return fmt.Errorf("declaration of %q: vector_len is not supported, outputs have a fixed length", a.Name)
	default:
		return fmt.Errorf("unknown declaration option %q", key)
	}
	return nil
}

func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}

// splitTopLevel splits s on commas that are not nested in parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, last := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}
