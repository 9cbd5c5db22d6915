package model

import "library-lite/internal/shared/apperror"

var ErrDashboardForbidden = apperror.Forbidden("REPORT001", "You can only view your own dashboard")
