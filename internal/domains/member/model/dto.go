package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"library-lite/internal/shared/utils"
)

var (
	membershipTypes = []interface{}{TypeBasic, TypePremium, TypeStudent}
	statuses        = []interface{}{StatusActive, StatusInactive, StatusSuspended, StatusExpired}
)

type CreateMemberRequest struct {
	UserID         uuid.UUID  `json:"userId"`
	MembershipType *string    `json:"membershipType"`
	Status         *string    `json:"status"`
	StartDate      *time.Time `json:"startDate"`
	ExpiryDate     *time.Time `json:"expiryDate"`
}

func (r *CreateMemberRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.By(utils.RequiredUUID)),
		validation.Field(&r.MembershipType, validation.NilOrNotEmpty, validation.In(membershipTypes...)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
		validation.Field(&r.ExpiryDate, validation.When(r.StartDate != nil && r.ExpiryDate != nil,
			validation.By(func(interface{}) error {
				if !r.ExpiryDate.After(*r.StartDate) {
					return validation.NewError("validation_expiry_before_start", "must be after startDate")
				}
				return nil
			}))),
	)
}

type UpdateMemberRequest struct {
	MembershipType *string    `json:"membershipType"`
	Status         *string    `json:"status"`
	ExpiryDate     *time.Time `json:"expiryDate"`
}

func (r *UpdateMemberRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MembershipType, validation.NilOrNotEmpty, validation.In(membershipTypes...)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(statuses...)),
	)
}
