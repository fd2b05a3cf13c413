package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded chain head", map[string]string{"X-Forwarded-For": " 203.0.113.1 , 10.0.0.1", "X-Real-IP": "198.51.100.1"}, "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.1", "CF-Connecting-IP": "192.0.2.1"}, "198.51.100.1"},
		{"cdn header", map[string]string{"CF-Connecting-IP": "192.0.2.1"}, "192.0.2.1"},
		{"empty forwarded head", map[string]string{"X-Forwarded-For": " , 10.0.0.1", "CF-Connecting-IP": "192.0.2.1"}, "192.0.2.1"},
		{"nothing", nil, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/inquiry", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, clientIP(r))
		})
	}
}
