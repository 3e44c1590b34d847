package bweb

import (
	"github.com/advdv/bweb/internal/pathtrie"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Reverser keeps track of named route templates and allows building URLs.
type Reverser struct {
	tmpls map[string]*pathtrie.Template
}

// NewReverser inits the reverser.
func NewReverser() *Reverser {
	return &Reverser{make(map[string]*pathtrie.Template)}
}

// Reverse substitutes vals, in order, into the template named name.
func (r Reverser) Reverse(name string, vals ...string) (string, error) {
	tmpl, ok := r.tmpls[name]
	if !ok {
		return "", errors.Newf("no route named: %q, got: %v", name, lo.Keys(r.tmpls))
	}

	res, err := pathtrie.Build(tmpl, vals...)
	if err != nil {
		return "", errors.Wrap(err, "failed to build")
	}

	return res, nil
}

// Named is a convenience method that panics if naming the template fails.
func (r Reverser) Named(name, str string) string {
	str, err := r.NamedTemplate(name, str)
	if err != nil {
		panic("bweb: " + err.Error())
	}

	return str
}

// NamedTemplate will parse 'str' as a route template while returning it as well.
func (r Reverser) NamedTemplate(name, str string) (string, error) {
	if _, exists := r.tmpls[name]; exists {
		return str, errors.Newf("route with name %q already exists", name)
	}

	tmpl, err := pathtrie.ParseTemplate(str)
	if err != nil {
		return str, errors.Wrap(err, "failed to parse template")
	}

	r.tmpls[name] = tmpl

	return str, nil
}
