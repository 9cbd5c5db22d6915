package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"library-lite/internal/auth"
	"library-lite/internal/shared"
)

// ========================================
// REQUEST DTOs
// ========================================

type SignupRequest struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
	FullName        string  `json:"fullName"`
	Role            *string `json:"role"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
}

func (r *SignupRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)

	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.ConfirmPassword, validation.When(r.ConfirmPassword != nil,
			validation.By(func(v interface{}) error {
				if *r.ConfirmPassword != r.Password {
					return validation.NewError("validation_password_mismatch", "passwords do not match")
				}
				return nil
			}))),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 255)),
		// public signup chỉ tạo member; staff được tạo bằng libctl create-staff
		validation.Field(&r.Role, validation.NilOrNotEmpty, validation.In(shared.RoleMember)),
		validation.Field(&r.Phone, validation.NilOrNotEmpty, validation.Length(6, 20)),
		validation.Field(&r.Address, validation.Length(0, 500)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

func (r *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FullName, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Phone, validation.Length(0, 20)),
		validation.Field(&r.Address, validation.Length(0, 500)),
	)
}

// CreateStaffRequest dùng bởi libctl, không expose qua HTTP
type CreateStaffRequest struct {
	Email    string
	Password string
	FullName string
	Role     string
}

func (r *CreateStaffRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.FullName, validation.Required),
		validation.Field(&r.Role, validation.Required, validation.In(shared.RoleLibrarian, shared.RoleAdmin)),
	)
}

// ========================================
// RESPONSE DTOs
// ========================================

type AuthResponse struct {
	User    *User         `json:"user"`
	Session *auth.Session `json:"session,omitempty"`
}
