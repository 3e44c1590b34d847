// Package pathtrie implements the path matcher used by the router: a segment trie over route
// templates with literal, parameter and wildcard segments.
package pathtrie

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind of a template segment.
type Kind uint8

const (
	// KindLiteral segments match exactly.
	KindLiteral Kind = iota
	// KindParam segments match any single non-empty segment.
	KindParam
	// KindWildcard segments match the remainder of the path and must come last.
	KindWildcard
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindParam:
		return "param"
	case KindWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Segment is one parsed piece of a template.
type Segment struct {
	Kind Kind
	// Value is the literal text, or the name of the parameter or wildcard.
	Value string
}

// Template is a parsed route template.
type Template struct {
	raw  string
	segs []Segment
}

// String returns the normalized form of the template.
func (t *Template) String() string { return t.raw }

// Segments returns the parsed segments.
func (t *Template) Segments() []Segment { return t.segs }

// Names returns the parameter and wildcard names in order of appearance.
func (t *Template) Names() []string {
	var names []string
	for _, s := range t.segs {
		if s.Kind != KindLiteral {
			names = append(names, s.Value)
		}
	}

	return names
}

// ParseTemplate parses a route template such as "/users/{id}/files/{path...}". Parameters are
// written as "{name}", a terminal wildcard as "{name...}", "{*name}" or a bare "*".
func ParseTemplate(s string) (*Template, error) {
	if s == "" {
		return nil, errors.New("empty template")
	}

	if s[0] != '/' {
		return nil, errors.Newf("template %q must start with '/'", s)
	}

	parts := Split(s)
	tmpl := &Template{segs: make([]Segment, 0, len(parts))}
	seen := map[string]bool{}

	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, errors.Wrapf(err, "template %q", s)
		}

		if seg.Kind == KindWildcard && i != len(parts)-1 {
			return nil, errors.Newf("template %q: wildcard %q must be the last segment", s, seg.Value)
		}

		if seg.Kind != KindLiteral {
			if seen[seg.Value] {
				return nil, errors.Newf("template %q: duplicate name %q", s, seg.Value)
			}

			seen[seg.Value] = true
		}

		tmpl.segs = append(tmpl.segs, seg)
	}

	tmpl.raw = format(tmpl.segs)

	return tmpl, nil
}

func parseSegment(part string) (Segment, error) {
	if part == "*" {
		return Segment{Kind: KindWildcard, Value: "*"}, nil
	}

	open, closing := strings.HasPrefix(part, "{"), strings.HasSuffix(part, "}")
	if !open && !closing {
		if strings.ContainsAny(part, "{}") {
			return Segment{}, errors.Newf("segment %q mixes literal text with a parameter", part)
		}

		return Segment{Kind: KindLiteral, Value: part}, nil
	}

	if !open || !closing {
		return Segment{}, errors.Newf("segment %q mixes literal text with a parameter", part)
	}

	name, kind := part[1:len(part)-1], KindParam
	switch {
	case strings.HasSuffix(name, "..."):
		name, kind = strings.TrimSuffix(name, "..."), KindWildcard
	case strings.HasPrefix(name, "*"):
		name, kind = strings.TrimPrefix(name, "*"), KindWildcard
	}

	if name == "" {
		return Segment{}, errors.Newf("segment %q has an empty name", part)
	}

	if strings.ContainsAny(name, "{}/*.") {
		return Segment{}, errors.Newf("segment %q has an invalid name", part)
	}

	return Segment{Kind: kind, Value: name}, nil
}

func format(segs []Segment) string {
	if len(segs) == 0 {
		return "/"
	}

	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')

		switch s.Kind {
		case KindLiteral:
			b.WriteString(s.Value)
		case KindParam:
			b.WriteString("{" + s.Value + "}")
		case KindWildcard:
			if s.Value == "*" {
				b.WriteString("*")
			} else {
				b.WriteString("{" + s.Value + "...}")
			}
		}
	}

	return b.String()
}

// Split breaks a path into its non-empty segments. Trailing slashes and repeated slashes are
// dropped, so "/a//b/" and "/a/b" split the same way and "/" yields no segments.
func Split(path string) []string {
	segs := make([]string, 0, strings.Count(path, "/"))
	for len(path) > 0 {
		i := strings.IndexByte(path, '/')
		if i < 0 {
			segs = append(segs, path)
			break
		}

		if i > 0 {
			segs = append(segs, path[:i])
		}

		path = path[i+1:]
	}

	return segs
}

// Build substitutes vals, in order, for the parameters and wildcard of the template. Parameter
// values are path-escaped, a wildcard value is inserted as-is.
func Build(tmpl *Template, vals ...string) (string, error) {
	names := tmpl.Names()
	if len(vals) < len(names) {
		return "", errors.Newf("not enough values for %q: want %d, got %d", tmpl.raw, len(names), len(vals))
	}

	if len(vals) > len(names) {
		return "", errors.Newf("too many values for %q: want %d, got %d", tmpl.raw, len(names), len(vals))
	}

	if len(tmpl.segs) == 0 {
		return "/", nil
	}

	var b strings.Builder
	next := 0

	for _, s := range tmpl.segs {
		b.WriteByte('/')

		switch s.Kind {
		case KindLiteral:
			b.WriteString(s.Value)
		case KindParam:
			if vals[next] == "" {
				return "", errors.Newf("empty value for parameter %q", s.Value)
			}

			b.WriteString(url.PathEscape(vals[next]))
			next++
		case KindWildcard:
			b.WriteString(strings.TrimPrefix(vals[next], "/"))
			next++
		}
	}

	return b.String(), nil
}
