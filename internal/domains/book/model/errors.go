package model

import "library-lite/internal/shared/apperror"

var (
	ErrBookNotFound        = apperror.NotFound("BOOK001", "Book not found")
	ErrISBNExists          = apperror.Conflict("BOOK002", "A book with this ISBN already exists")
	ErrAuthorNotFound      = apperror.NotFound("BOOK003", "Author not found")
	ErrBookHasActiveLoans  = apperror.InvalidState("BOOK004", "Cannot delete book with active loans")
	ErrCopiesBelowOnLoan   = apperror.InvalidState("BOOK005", "Total copies cannot be less than copies on loan")
	ErrInvalidAvailability = apperror.Validation("BOOK006", "Available copies must be between 0 and total copies minus copies on loan")
	ErrInvalidCover        = apperror.Validation("BOOK007", "Cover must be a JPEG or PNG image up to 5MB")
	ErrCoverUnavailable    = apperror.InvalidState("BOOK008", "Cover storage is not configured")
)
