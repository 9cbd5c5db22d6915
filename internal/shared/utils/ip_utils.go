package utils

import (
	"net"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

const fallbackIP = "127.0.0.1"

// ExtractClientIP: X-Forwarded-For (hop đầu tiên) -> X-Real-IP -> RemoteAddr.
// Giá trị không parse được bị bỏ qua; dùng làm key cho rate limiter.
func ExtractClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := normalizeIP(first); ok {
			return ip
		}
	}

	if ip, ok := normalizeIP(c.GetHeader("X-Real-IP")); ok {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	if ip, ok := normalizeIP(host); ok {
		return ip
	}
	return fallbackIP
}

// normalizeIP trả về dạng canonical, IPv4-mapped IPv6 được unmap
func normalizeIP(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
