package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"bearer abc123", "abc123", true},
		{"Bearer   abc123  ", "abc123", true},
		{"Bearer ", "", false},
		{"Basic abc123", "", false},
		{"abc123", "", false},
	}
	for _, tc := range cases {
		token, err := extractBearerToken(tc.header)
		if tc.ok && (err != nil || token != tc.token) {
			t.Fatalf("header %q: token=%q err=%v", tc.header, token, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("header %q should be rejected", tc.header)
		}
	}
}

func TestPublicPaths(t *testing.T) {
	for _, p := range []string{"/v1/auth/login", "/healthz", "/readyz", "/metrics", "/v1/info"} {
		if !isPublicPath(p) {
			t.Fatalf("%s should be public", p)
		}
	}
	for _, p := range []string{"/v1/users", "/v1/auth/session", "/v1/authz/route", "/"} {
		if isPublicPath(p) {
			t.Fatalf("%s should not be public", p)
		}
	}
}
