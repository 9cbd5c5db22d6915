package model

import "library-lite/internal/shared/apperror"

var (
	ErrMemberNotFound    = apperror.NotFound("MEMBER001", "Member not found")
	ErrMemberExists      = apperror.Conflict("MEMBER002", "User already has a membership")
	ErrMemberHasLoans    = apperror.InvalidState("MEMBER003", "Cannot delete member with active loans")
	ErrMemberForbidden   = apperror.Forbidden("MEMBER004", "You can only view your own membership")
	ErrMemberUserMissing = apperror.NotFound("MEMBER005", "User not found")
)

var ErrExpiryBeforeStart = apperror.Validation("MEMBER006", "Expiry date must be after start date")
