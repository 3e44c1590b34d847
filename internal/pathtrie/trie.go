package pathtrie

import (
	"fmt"
	"strings"
)

// Param is one captured path value.
type Param struct {
	Key   string
	Value string
}

// Params are the values captured while matching a path, in template order.
type Params []Param

// Get returns the value captured under name.
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Key == name {
			return p.Value, true
		}
	}

	return "", false
}

// ConflictError is returned when a template cannot be inserted without making matching
// ambiguous.
type ConflictError struct {
	Template string
	Existing string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("route %q conflicts with %q: %s", e.Template, e.Existing, e.Reason)
}

// Match is the result of a successful lookup.
type Match[H any] struct {
	Value    H
	Params   Params
	Template string
}

type leaf[H any] struct {
	value H
	tmpl  string
}

type node[H any] struct {
	literals map[string]*node[H]

	param      *node[H]
	paramName  string
	paramOwner string

	wild     *leaf[H]
	wildName string

	route *leaf[H]
}

// Trie maps route templates to values of type H. It is not safe for concurrent insertion, but
// concurrent lookups on a trie that is no longer modified are safe.
type Trie[H any] struct {
	root node[H]
	size int
}

// New creates an empty trie.
func New[H any]() *Trie[H] { return &Trie[H]{} }

// Len returns the number of templates inserted.
func (t *Trie[H]) Len() int { return t.size }

// Insert adds the template with value h. It returns a parse error for malformed templates and a
// *ConflictError when the template is ambiguous with one inserted before.
func (t *Trie[H]) Insert(template string, h H) error {
	tmpl, err := ParseTemplate(template)
	if err != nil {
		return err
	}

	return t.InsertTemplate(tmpl, h)
}

// InsertTemplate is like Insert for an already parsed template.
func (t *Trie[H]) InsertTemplate(tmpl *Template, h H) error {
	n := &t.root

	for _, seg := range tmpl.segs {
		switch seg.Kind {
		case KindLiteral:
			if n.literals == nil {
				n.literals = map[string]*node[H]{}
			}

			child, ok := n.literals[seg.Value]
			if !ok {
				child = &node[H]{}
				n.literals[seg.Value] = child
			}

			n = child
		case KindParam:
			if n.param == nil {
				n.param, n.paramName, n.paramOwner = &node[H]{}, seg.Value, tmpl.raw
			} else if n.paramName != seg.Value {
				return &ConflictError{
					Template: tmpl.raw,
					Existing: n.paramOwner,
					Reason:   fmt.Sprintf("parameter {%s} differs from {%s} at the same position", seg.Value, n.paramName),
				}
			}

			n = n.param
		case KindWildcard:
			if n.wild != nil {
				reason := "duplicate route"
				if n.wildName != seg.Value {
					reason = fmt.Sprintf("wildcard %q differs from %q at the same position", seg.Value, n.wildName)
				}

				return &ConflictError{Template: tmpl.raw, Existing: n.wild.tmpl, Reason: reason}
			}

			n.wild, n.wildName = &leaf[H]{value: h, tmpl: tmpl.raw}, seg.Value
			t.size++

			return nil
		}
	}

	if n.route != nil {
		return &ConflictError{Template: tmpl.raw, Existing: n.route.tmpl, Reason: "duplicate route"}
	}

	n.route = &leaf[H]{value: h, tmpl: tmpl.raw}
	t.size++

	return nil
}

// Lookup finds the value for path. At every segment a literal child is tried first, then the
// parameter child, then the wildcard; a branch that dead-ends falls back to the next option.
func (t *Trie[H]) Lookup(path string) (m Match[H], ok bool) {
	segs := Split(path)

	var params Params
	if lf := t.root.lookup(segs, &params); lf != nil {
		return Match[H]{Value: lf.value, Params: params, Template: lf.tmpl}, true
	}

	return m, false
}

func (n *node[H]) lookup(segs []string, params *Params) *leaf[H] {
	if len(segs) == 0 {
		return n.route
	}

	if child, ok := n.literals[segs[0]]; ok {
		if lf := child.lookup(segs[1:], params); lf != nil {
			return lf
		}
	}

	if n.param != nil {
		mark := len(*params)
		*params = append(*params, Param{Key: n.paramName, Value: segs[0]})

		if lf := n.param.lookup(segs[1:], params); lf != nil {
			return lf
		}

		*params = (*params)[:mark]
	}

	if n.wild != nil {
		*params = append(*params, Param{Key: n.wildName, Value: strings.Join(segs, "/")})
		return n.wild
	}

	return nil
}
