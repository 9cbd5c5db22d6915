package model

import (
	"time"

	"github.com/google/uuid"

	"library-lite/internal/shared"
)

// ActivityLog là audit entry append-only
type ActivityLog struct {
	ID        uuid.UUID              `json:"id"`
	UserID    *uuid.UUID             `json:"userId,omitempty"`
	Action    string                 `json:"action"`
	Details   string                 `json:"details"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"timestamp"`
	User      *shared.UserRef        `json:"user,omitempty"`
}

// New tạo entry cho action của userID
func New(userID uuid.UUID, action, details string, metadata map[string]interface{}) *ActivityLog {
	return &ActivityLog{
		ID:       uuid.New(),
		UserID:   &userID,
		Action:   action,
		Details:  details,
		Metadata: metadata,
	}
}

type ListFilter struct {
	UserID *uuid.UUID
	Action string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}
