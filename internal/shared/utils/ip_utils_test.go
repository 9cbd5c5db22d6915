package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded first hop", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:5000", "203.0.113.7"},
		{"garbage forwarded falls through", "unknown", "198.51.100.4", "10.0.0.2:5000", "198.51.100.4"},
		{"remote addr", "", "", "192.0.2.10:43120", "192.0.2.10"},
		{"ipv4 mapped", "", "", "[::ffff:192.0.2.11]:80", "192.0.2.11"},
		{"ipv6", "2001:db8::1", "", "", "2001:db8::1"},
		{"nothing usable", "", "", "pipe", fallbackIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Request.RemoteAddr = tt.remote
			if tt.xff != "" {
				c.Request.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				c.Request.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, ExtractClientIP(c))
		})
	}
}
