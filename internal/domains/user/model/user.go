package model

import (
	"time"

	"github.com/google/uuid"

	"library-lite/internal/shared"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	AuthID    *string   `json:"-"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Ref() *shared.UserRef {
	return &shared.UserRef{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

func (u *User) Actor() shared.Actor {
	return shared.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}
