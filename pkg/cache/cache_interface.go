package cache

import (
	"context"
	"time"
)

// Cache là KV store phụ trợ (Redis). Entities của thư viện không được cache;
// chỉ giữ credential của local auth provider và danh sách token đã revoke.
type Cache interface {
	// Get unmarshal JSON vào dest. found = false khi cache miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set lưu JSON với TTL; ttl = 0 nghĩa là không hết hạn
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// SetNX chỉ ghi khi key chưa tồn tại; stored = false nếu key đã có
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (stored bool, err error)

	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
