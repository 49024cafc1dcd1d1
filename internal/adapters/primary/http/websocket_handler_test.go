package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func originRequest(origin string) *stdhttp.Request {
	req := httptest.NewRequest(stdhttp.MethodGet, "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestMakeOriginChecker(t *testing.T) {
	check := makeOriginChecker([]string{"https://helpdesk.example.com", "*.corp.example.com"}, false)

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin header", "", true},
		{"exact match", "https://helpdesk.example.com", true},
		{"wildcard subdomain", "https://it.corp.example.com", true},
		{"wildcard root domain", "https://corp.example.com", true},
		{"unlisted origin", "https://evil.example.org", false},
		{"suffix trick", "https://notcorp.example.com", false},
		{"unparsable origin", "://bad", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, check(originRequest(tc.origin)))
		})
	}
}

func TestMakeOriginChecker_DevelopmentFallback(t *testing.T) {
	check := makeOriginChecker(nil, true)
	assert.True(t, check(originRequest("http://localhost:3000")))

	strict := makeOriginChecker(nil, false)
	assert.False(t, strict(originRequest("http://localhost:3000")))
}
