package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"library-lite/internal/shared/apperror"
)

func init() {
	// Request bodies are explicit schemas; unknown fields are rejected.
	binding.EnableDecoderDisallowUnknownFields = true
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Validatable là DTO có business validation (ozzo-validation)
type Validatable interface {
	Validate() error
}

// BindJSON decode body vào req (unknown fields bị reject) rồi chạy req.Validate()
func BindJSON(c *gin.Context, req Validatable) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Validation("VALIDATION_ERROR", "Invalid request body").WithDetails(err.Error())
	}
	if err := req.Validate(); err != nil {
		return apperror.Validation("VALIDATION_ERROR", "Invalid request").WithDetails(err)
	}
	return nil
}

// ParseUUIDParam parse path param :name thành UUID
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("INVALID_ID", "Invalid "+name)
	}
	return id, nil
}

// ParseOptionalUUIDQuery trả về nil nếu query param không có
func ParseOptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("INVALID_ID", "Invalid "+name)
	}
	return &id, nil
}

// ParsePagination đọc ?page=&limit=, default page 1 / limit 10, limit tối đa 100
func ParsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))
	return NormalizePage(page, limit)
}

func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Offset tính OFFSET cho SQL từ page/limit
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// SortOrder chỉ nhận asc/desc
func SortOrder(raw string) string {
	if strings.EqualFold(raw, "asc") {
		return "ASC"
	}
	return "DESC"
}
