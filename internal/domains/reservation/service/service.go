package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	activityModel "library-lite/internal/domains/activity/model"
	activityRepo "library-lite/internal/domains/activity/repository"
	bookRepo "library-lite/internal/domains/book/repository"
	"library-lite/internal/domains/reservation/model"
	"library-lite/internal/domains/reservation/repository"
	userRepo "library-lite/internal/domains/user/repository"
	"library-lite/internal/infrastructure/queue"
	"library-lite/internal/shared"
	"library-lite/pkg/database"
	"library-lite/pkg/logger"
)

type ServiceInterface interface {
	Reserve(ctx context.Context, actor shared.Actor, req *model.ReserveRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Reservation, error)
	ListByUser(ctx context.Context, actor shared.Actor, userID uuid.UUID, status string) ([]model.Reservation, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type Deps struct {
	Tx           database.TxManager
	Reservations repository.Repository
	Books        bookRepo.BookRepository
	Users        userRepo.Repository
	Activity     activityRepo.Repository
	Clock        shared.Clock
	Notifier     queue.Notifier
	HoldDays     int
}

type reservationService struct {
	Deps
}

func NewReservationService(deps Deps) ServiceInterface {
	if deps.Clock == nil {
		deps.Clock = shared.SystemClock()
	}
	if deps.Notifier == nil {
		deps.Notifier = queue.NopNotifier{}
	}
	if deps.HoldDays <= 0 {
		deps.HoldDays = 7
	}
	return &reservationService{Deps: deps}
}

// Reserve tạo reservation pending. Không đụng tới availableCopies.
func (s *reservationService) Reserve(ctx context.Context, actor shared.Actor, req *model.ReserveRequest) (*model.Reservation, error) {
	// Step 1: Member chỉ đặt cho chính mình
	userID := actor.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	if !actor.CanActFor(userID) {
		return nil, model.ErrReservationForbidden
	}

	// Step 2: Expiry
	now := s.Clock.Now()
	expiresAt := now.AddDate(0, 0, s.HoldDays)
	if req.ExpiryDate != nil {
		if !req.ExpiryDate.After(now) {
			return nil, model.ErrExpiryInPast
		}
		expiresAt = req.ExpiryDate.UTC()
	}

	// Step 3: Book và user phải tồn tại
	book, err := s.Books.GetByID(ctx, req.BookID)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Step 4: Transaction: check duplicate -> insert -> activity
	res, err := database.WithTransactionResult(ctx, s.Tx, func(tx pgx.Tx) (*model.Reservation, error) {
		pending, err := s.Reservations.HasPendingWithTx(ctx, tx, userID, book.ID)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, model.ErrPendingExists
		}

		res := &model.Reservation{
			ID:         uuid.New(),
			UserID:     userID,
			BookID:     book.ID,
			Status:     model.StatusPending,
			ReservedAt: now,
			ExpiresAt:  expiresAt,
		}
		if err := s.Reservations.CreateWithTx(ctx, tx, res); err != nil {
			return nil, err
		}

		entry := activityModel.New(actor.UserID, shared.ActionReserveBook,
			fmt.Sprintf("Reserved %q for %s", book.Title, user.Email),
			map[string]interface{}{
				"reservationId": res.ID,
				"bookId":        book.ID,
				"reserverId":    userID,
				"expiryDate":    expiresAt,
			})
		if err := s.Activity.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		res.User = user.Ref()
		res.Book = book.Ref()
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	// Step 5: Confirmation email (fire-and-forget)
	s.Notifier.Notify(ctx, shared.EmailPayload{
		Template:  shared.TemplateBookReserved,
		To:        user.Email,
		Name:      user.FullName,
		BookTitle: book.Title,
		Date:      &res.ExpiresAt,
	})

	logger.Info("Book reserved", map[string]interface{}{
		"reservation_id": res.ID.String(),
		"user_id":        userID.String(),
		"book_id":        book.ID.String(),
	})
	return res, nil
}

// Cancel: pending -> cancelled. Cancel lại reservation đã cancelled trả về nguyên trạng.
func (s *reservationService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Reservation, error) {
	return database.WithTransactionResult(ctx, s.Tx, func(tx pgx.Tx) (*model.Reservation, error) {
		res, err := s.Reservations.GetByIDForUpdateWithTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if !actor.CanActFor(res.UserID) {
			return nil, model.ErrReservationForbidden
		}

		switch res.Status {
		case model.StatusCancelled:
			return res, nil
		case model.StatusPending:
		default:
			return nil, model.ErrReservationResolved.WithDetails(map[string]interface{}{"status": res.Status})
		}

		if err := s.Reservations.UpdateStatusWithTx(ctx, tx, res.ID, model.StatusCancelled); err != nil {
			return nil, err
		}

		entry := activityModel.New(actor.UserID, shared.ActionCancelReservation,
			"Cancelled reservation "+res.ID.String(),
			map[string]interface{}{
				"reservationId": res.ID,
				"bookId":        res.BookID,
				"reserverId":    res.UserID,
			})
		if err := s.Activity.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		res.Status = model.StatusCancelled
		res.UpdatedAt = s.Clock.Now()
		return res, nil
	})
}

func (s *reservationService) ListByUser(ctx context.Context, actor shared.Actor, userID uuid.UUID, status string) ([]model.Reservation, error) {
	if !actor.CanActFor(userID) {
		return nil, model.ErrReservationForbidden
	}
	if status != "" && !model.ValidStatus(status) {
		return nil, model.ErrInvalidStatusFilter
	}
	return s.Reservations.ListByUser(ctx, userID, status)
}

// SweepExpired chuyển reservation pending đã quá expiryDate sang expired
func (s *reservationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Reservations.ExpirePending(ctx, s.Clock.Now())
	if err != nil {
		return 0, err
	}
	logger.Info("Reservation expiry sweep finished", map[string]interface{}{"expired": n})
	return n, nil
}
