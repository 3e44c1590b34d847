package pathtrie_test

import (
	"testing"

	"github.com/advdv/bweb/internal/pathtrie"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tr := pathtrie.New[string]()
	for _, tmpl := range []string{
		"/",
		"/hi/{name}",
		"/users/{id}",
		"/users/active",
		"/users/{id}/posts/{post}",
		"/users/active/posts/latest",
		"/static/{path...}",
		"/static/favicon.ico",
		"/files/{id}",
		"/files/{rest...}",
	} {
		require.NoError(t, tr.Insert(tmpl, tmpl))
	}

	for _, tt := range []struct {
		path   string
		want   string
		params pathtrie.Params
	}{
		{"/", "/", nil},
		{"/hi/Ada", "/hi/{name}", pathtrie.Params{{"name", "Ada"}}},
		{"/hi/Ada/", "/hi/{name}", pathtrie.Params{{"name", "Ada"}}},
		{"/users/active", "/users/active", nil},
		{"/users/42", "/users/{id}", pathtrie.Params{{"id", "42"}}},
		{"/users/42/posts/7", "/users/{id}/posts/{post}", pathtrie.Params{{"id", "42"}, {"post", "7"}}},
		{"/users/active/posts/latest", "/users/active/posts/latest", nil},
		{"/users/active/posts/9", "/users/{id}/posts/{post}", pathtrie.Params{{"id", "active"}, {"post", "9"}}},
		{"/static/favicon.ico", "/static/favicon.ico", nil},
		{"/static/css/site.css", "/static/{path...}", pathtrie.Params{{"path", "css/site.css"}}},
		{"//static//js///app.js", "/static/{path...}", pathtrie.Params{{"path", "js/app.js"}}},
		{"/files/a", "/files/{id}", pathtrie.Params{{"id", "a"}}},
		{"/files/a/b", "/files/{rest...}", pathtrie.Params{{"rest", "a/b"}}},
	} {
		t.Run(tt.path, func(t *testing.T) {
			m, ok := tr.Lookup(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Value)
			assert.Equal(t, tt.want, m.Template)
			assert.Equal(t, tt.params, m.Params)
		})
	}

	for _, path := range []string{"/nope", "/users", "/users/1/posts", "/static", "/hi/a/b"} {
		_, ok := tr.Lookup(path)
		assert.False(t, ok, path)
	}
}

func TestLookupBacktracksAfterDeadEnd(t *testing.T) {
	tr := pathtrie.New[int]()
	require.NoError(t, tr.Insert("/a/b/c", 1))
	require.NoError(t, tr.Insert("/a/{x}/d", 2))

	m, ok := tr.Lookup("/a/b/d")
	require.True(t, ok)
	assert.Equal(t, 2, m.Value)
	assert.Equal(t, pathtrie.Params{{"x", "b"}}, m.Params)
}

func TestInsertConflicts(t *testing.T) {
	for _, tt := range []struct {
		name   string
		first  string
		second string
		reason string
	}{
		{"param names", "/users/{id}", "/users/{name}/x", "parameter {name} differs from {id}"},
		{"duplicate", "/users/{id}", "/users/{id}/", "duplicate route"},
		{"duplicate wildcard", "/s/{p...}", "/s/{p...}", "duplicate route"},
		{"wildcard names", "/s/{p...}", "/s/{*rest}", `wildcard "rest" differs from "p"`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tr := pathtrie.New[int]()
			require.NoError(t, tr.Insert(tt.first, 1))

			err := tr.Insert(tt.second, 2)

			var cerr *pathtrie.ConflictError
			require.True(t, errors.As(err, &cerr))
			assert.Contains(t, cerr.Reason, tt.reason)
			assert.Equal(t, 1, tr.Len())
		})
	}
}

func TestLiteralAndParamCoexist(t *testing.T) {
	tr := pathtrie.New[int]()
	require.NoError(t, tr.Insert("/users/{id}", 1))
	require.NoError(t, tr.Insert("/users/active", 2))
	require.NoError(t, tr.Insert("/users/*", 3))
	assert.Equal(t, 3, tr.Len())
}

func TestParseTemplate(t *testing.T) {
	for _, tt := range []struct {
		in, want string
	}{
		{"/", "/"},
		{"/a/", "/a"},
		{"//a//b", "/a/b"},
		{"/a/{id}", "/a/{id}"},
		{"/a/{p...}", "/a/{p...}"},
		{"/a/{*p}", "/a/{p...}"},
		{"/a/*", "/a/*"},
	} {
		tmpl, err := pathtrie.ParseTemplate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, tmpl.String())
	}

	for _, tt := range []struct {
		in, msg string
	}{
		{"", "empty template"},
		{"a/b", "must start with '/'"},
		{"/{p...}/x", "must be the last segment"},
		{"/x{id}", "mixes literal text"},
		{"/{id}x", "mixes literal text"},
		{"/{}", "empty name"},
		{"/{a}/{a}", "duplicate name"},
	} {
		_, err := pathtrie.ParseTemplate(tt.in)
		require.Error(t, err, tt.in)
		assert.Contains(t, err.Error(), tt.msg)
	}
}

func TestTemplateSegments(t *testing.T) {
	tmpl, err := pathtrie.ParseTemplate("/users/{id}/{rest...}")
	require.NoError(t, err)
	require.Equal(t, []pathtrie.Segment{
		{Kind: pathtrie.KindLiteral, Value: "users"},
		{Kind: pathtrie.KindParam, Value: "id"},
		{Kind: pathtrie.KindWildcard, Value: "rest"},
	}, tmpl.Segments())
	assert.Equal(t, "param", pathtrie.KindParam.String())

	params := pathtrie.Params{pathtrie.Param{Key: "id", Value: "7"}}
	v, ok := params.Get("id")
	assert.True(t, ok)
	assert.Equal(t, "7", v)
}

func TestBuild(t *testing.T) {
	tmpl, err := pathtrie.ParseTemplate("/users/{id}/files/{path...}")
	require.NoError(t, err)

	s, err := pathtrie.Build(tmpl, "a b", "docs/readme.md")
	require.NoError(t, err)
	assert.Equal(t, "/users/a%20b/files/docs/readme.md", s)

	_, err = pathtrie.Build(tmpl, "1")
	require.ErrorContains(t, err, "not enough values")

	_, err = pathtrie.Build(tmpl, "1", "2", "3")
	require.ErrorContains(t, err, "too many values")

	root, err := pathtrie.ParseTemplate("/")
	require.NoError(t, err)

	s, err = pathtrie.Build(root)
	require.NoError(t, err)
	assert.Equal(t, "/", s)
}

func TestSplit(t *testing.T) {
	assert.Empty(t, pathtrie.Split("/"))
	assert.Empty(t, pathtrie.Split(""))
	assert.Equal(t, []string{"a", "b"}, pathtrie.Split("/a//b/"))
}
