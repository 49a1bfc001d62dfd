package component

import (
	"bytes"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(t.Context(), &buf))
	return buf.String()
}

func TestPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		page     templ.Component
		contains []string
	}{
		{
			name:     "index",
			page:     Index(),
			contains: []string{`href="/signup"`, `href="/signin"`},
		},
		{
			name: "sign up",
			page: SignUp("tkn"),
			contains: []string{
				`id="signup-form"`, `action="/users"`,
				`name="email"`, `name="password"`, `name="firstName"`, `name="lastName"`,
				`<input type="hidden" name="_csrf" value="tkn">`,
			},
		},
		{
			name: "sign in",
			page: SignIn("tkn"),
			contains: []string{
				`id="signin-form"`, `action="/sessions"`, `name="email"`, `name="password"`,
				`<input type="hidden" name="_csrf" value="tkn">`,
			},
		},
		{
			name: "home",
			page: Home("Ada Lovelace", "tkn"),
			contains: []string{
				`Hello, Ada Lovelace`, `href="/signout"`, `action="/me"`,
				`<input type="hidden" name="_csrf" value="tkn">`,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			out := renderString(t, test.page)
			assert.Contains(t, out, "<!doctype html>")
			for _, want := range test.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestHome_EscapesName(t *testing.T) {
	t.Parallel()

	out := renderString(t, Home(`<script>alert("x")</script>`, `"><b>`))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, `"><b>`)
	assert.Contains(t, out, `value="&#34;&gt;&lt;b&gt;"`)
}
