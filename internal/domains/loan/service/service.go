package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	activityModel "library-lite/internal/domains/activity/model"
	activityRepo "library-lite/internal/domains/activity/repository"
	bookRepo "library-lite/internal/domains/book/repository"
	"library-lite/internal/domains/fine"
	"library-lite/internal/domains/loan/model"
	"library-lite/internal/domains/loan/repository"
	reservationRepo "library-lite/internal/domains/reservation/repository"
	userRepo "library-lite/internal/domains/user/repository"
	"library-lite/internal/infrastructure/queue"
	"library-lite/internal/shared"
	"library-lite/pkg/database"
	"library-lite/pkg/logger"
)

type ServiceInterface interface {
	Borrow(ctx context.Context, actor shared.Actor, req *model.BorrowRequest) (*model.Loan, error)
	Return(ctx context.Context, actor shared.Actor, req *model.ReturnRequest) (*model.ReturnResult, error)

	GetLoan(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Loan, error)
	ListLoans(ctx context.Context, filter model.ListFilter) ([]model.Loan, int, error)
	ListUserLoans(ctx context.Context, actor shared.Actor, userID uuid.UUID) ([]model.Loan, error)
	ListOverdue(ctx context.Context) ([]model.Loan, error)

	// Scheduled jobs
	SweepOverdue(ctx context.Context) (int, error)
	SendDueReminders(ctx context.Context) (int, error)
}

// Deps gom các dependency của loan service
type Deps struct {
	Tx           database.TxManager
	Loans        repository.Repository
	Books        bookRepo.BookRepository
	Users        userRepo.Repository
	Reservations reservationRepo.Repository
	Activity     activityRepo.Repository
	Calculator   *fine.Calculator
	Notifier     queue.Notifier
	PeriodDays   int
	DueSoonDays  int
}

type loanService struct {
	Deps
}

func NewLoanService(deps Deps) ServiceInterface {
	if deps.Notifier == nil {
		deps.Notifier = queue.NopNotifier{}
	}
	if deps.PeriodDays <= 0 {
		deps.PeriodDays = 14
	}
	if deps.DueSoonDays <= 0 {
		deps.DueSoonDays = 2
	}
	return &loanService{Deps: deps}
}

// =====================================================
// BORROW
// =====================================================

// Borrow tạo loan và giảm availableCopies trong cùng một transaction.
// Precondition sai thì không có gì được ghi.
func (s *loanService) Borrow(ctx context.Context, actor shared.Actor, req *model.BorrowRequest) (*model.Loan, error) {
	// Step 1: Xác định người mượn (member chỉ mượn cho chính mình)
	userID := actor.UserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	if !actor.CanActFor(userID) {
		return nil, model.ErrLoanForbidden
	}

	// Step 2: Người mượn phải tồn tại
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Step 3: Due date
	now := s.Calculator.Now()
	dueDate := now.AddDate(0, 0, s.PeriodDays)
	if req.DueDate != nil {
		if !req.DueDate.After(now) {
			return nil, model.ErrDueDateInPast
		}
		dueDate = req.DueDate.UTC()
	}

	// Step 4: Transaction: lock book -> check -> insert loan -> decrement -> activity
	loan, err := database.WithTransactionResult(ctx, s.Tx, func(tx pgx.Tx) (*model.Loan, error) {
		book, err := s.Books.GetByIDForUpdateWithTx(ctx, tx, req.BookID)
		if err != nil {
			return nil, err
		}
		if book.AvailableCopies <= 0 {
			return nil, model.ErrNoCopiesAvailable
		}

		active, err := s.Loans.HasActiveLoanWithTx(ctx, tx, userID, book.ID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, model.ErrActiveLoanExists
		}

		loan := &model.Loan{
			ID:         uuid.New(),
			UserID:     userID,
			BookID:     book.ID,
			BorrowDate: now,
			DueDate:    dueDate,
			Status:     model.StatusBorrowed,
			Fine:       decimal.Zero,
		}
		if err := s.Loans.CreateWithTx(ctx, tx, loan); err != nil {
			return nil, err
		}

		ok, err := s.Books.DecrementAvailableWithTx(ctx, tx, book.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, model.ErrNoCopiesAvailable
		}

		// Reservation pending của chính người mượn được đánh dấu fulfilled
		fulfilled, err := s.Reservations.FulfillPendingWithTx(ctx, tx, userID, book.ID)
		if err != nil {
			return nil, err
		}

		entry := activityModel.New(actor.UserID, shared.ActionBorrowBook,
			fmt.Sprintf("Borrowed %q for %s", book.Title, user.Email),
			map[string]interface{}{
				"loanId":               loan.ID,
				"bookId":               book.ID,
				"borrowerId":           userID,
				"dueDate":              dueDate,
				"reservationFulfilled": fulfilled,
			})
		if err := s.Activity.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		loan.User = user.Ref()
		loan.Book = book.Ref()
		return loan, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Book borrowed", map[string]interface{}{
		"loan_id": loan.ID.String(),
		"user_id": userID.String(),
		"book_id": req.BookID.String(),
	})
	return loan, nil
}

// =====================================================
// RETURN
// =====================================================

// Return tính fine tại thời điểm trả, đóng loan và tăng availableCopies (không vượt totalCopies)
func (s *loanService) Return(ctx context.Context, actor shared.Actor, req *model.ReturnRequest) (*model.ReturnResult, error) {
	result, err := database.WithTransactionResult(ctx, s.Tx, func(tx pgx.Tx) (*model.ReturnResult, error) {
		// Step 1: Lock loan
		loan, err := s.Loans.GetByIDForUpdateWithTx(ctx, tx, req.LoanID)
		if err != nil {
			return nil, err
		}

		// Step 2: Chủ loan hoặc staff
		if !actor.CanActFor(loan.UserID) {
			return nil, model.ErrLoanForbidden
		}
		if loan.Status == model.StatusReturned {
			return nil, model.ErrAlreadyReturned
		}

		// Step 3: Fine theo canonical policy
		now := s.Calculator.Now()
		amount := s.Calculator.Fine(loan.DueDate, &now)

		if err := s.Loans.MarkReturnedWithTx(ctx, tx, loan.ID, now, amount); err != nil {
			return nil, err
		}

		// Step 4: Trả lại bản sách, guard availableCopies <= totalCopies
		ok, err := s.Books.IncrementAvailableWithTx(ctx, tx, loan.BookID)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn("Available copies already at total, not incremented", map[string]interface{}{
				"loan_id": loan.ID.String(),
				"book_id": loan.BookID.String(),
			})
		}

		// Step 5: Activity log
		entry := activityModel.New(actor.UserID, shared.ActionReturnBook,
			fmt.Sprintf("Returned %q", bookTitle(loan)),
			map[string]interface{}{
				"loanId":     loan.ID,
				"bookId":     loan.BookID,
				"borrowerId": loan.UserID,
				"fine":       amount.StringFixed(2),
			})
		if err := s.Activity.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		loan.Status = model.StatusReturned
		loan.ReturnDate = &now
		loan.Fine = amount
		return &model.ReturnResult{Loan: loan, Fine: amount}, nil
	})
	if err != nil {
		return nil, err
	}

	// Step 6: Sau commit, báo cho người đặt trước lâu nhất
	s.notifyNextReserver(ctx, result.Loan)
	return result, nil
}

func (s *loanService) notifyNextReserver(ctx context.Context, loan *model.Loan) {
	next, err := s.Reservations.OldestPendingForBook(ctx, loan.BookID)
	if err != nil {
		logger.Error("Failed to look up pending reservation after return", err)
		return
	}
	if next == nil || next.User == nil {
		return
	}

	s.Notifier.Notify(ctx, shared.EmailPayload{
		Template:  shared.TemplateBookAvailable,
		To:        next.User.Email,
		Name:      next.User.FullName,
		BookTitle: bookTitle(loan),
		Date:      &next.ExpiresAt,
	})
}

// =====================================================
// READS
// =====================================================

func (s *loanService) GetLoan(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Loan, error) {
	loan, err := s.Loans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(loan.UserID) {
		return nil, model.ErrLoanForbidden
	}
	loan.ApplyLiveFine(s.Calculator)
	return loan, nil
}

func (s *loanService) ListLoans(ctx context.Context, filter model.ListFilter) ([]model.Loan, int, error) {
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return nil, 0, model.ErrInvalidStatusFilter
	}
	loans, total, err := s.Loans.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	s.applyLiveFines(loans)
	return loans, total, nil
}

func (s *loanService) ListUserLoans(ctx context.Context, actor shared.Actor, userID uuid.UUID) ([]model.Loan, error) {
	if !actor.CanActFor(userID) {
		return nil, model.ErrLoanForbidden
	}
	loans, err := s.Loans.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.applyLiveFines(loans)
	return loans, nil
}

// ListOverdue trả về loan chưa trả đã quá hạn kèm daysOverdue và calculatedFine (live)
func (s *loanService) ListOverdue(ctx context.Context) ([]model.Loan, error) {
	loans, err := s.Loans.ListOpenDueBefore(ctx, s.Calculator.Now())
	if err != nil {
		return nil, err
	}
	s.applyLiveFines(loans)
	return loans, nil
}

func (s *loanService) applyLiveFines(loans []model.Loan) {
	for i := range loans {
		loans[i].ApplyLiveFine(s.Calculator)
	}
}

// =====================================================
// SCHEDULED JOBS
// =====================================================

// SweepOverdue chuyển loan quá hạn sang overdue và gửi overdue notice
func (s *loanService) SweepOverdue(ctx context.Context) (int, error) {
	flipped, err := s.Loans.MarkOverdue(ctx, s.Calculator.Now())
	if err != nil {
		return 0, err
	}

	for i := range flipped {
		loan := &flipped[i]
		if loan.User == nil {
			continue
		}
		due := loan.DueDate
		s.Notifier.Notify(ctx, shared.EmailPayload{
			Template:  shared.TemplateBookOverdue,
			To:        loan.User.Email,
			Name:      loan.User.FullName,
			BookTitle: bookTitle(loan),
			Date:      &due,
			Days:      s.Calculator.DaysOverdue(loan.DueDate, nil),
			Amount:    s.Calculator.Fine(loan.DueDate, nil).StringFixed(2),
		})
	}

	logger.Info("Overdue sweep finished", map[string]interface{}{"flipped": len(flipped)})
	return len(flipped), nil
}

// SendDueReminders nhắc các loan đến hạn trong DueSoonDays ngày tới
func (s *loanService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.Calculator.Now()
	loans, err := s.Loans.ListDueBetween(ctx, now, now.AddDate(0, 0, s.DueSoonDays))
	if err != nil {
		return 0, err
	}

	for i := range loans {
		loan := &loans[i]
		if loan.User == nil {
			continue
		}
		due := loan.DueDate
		s.Notifier.Notify(ctx, shared.EmailPayload{
			Template:  shared.TemplateBookDue,
			To:        loan.User.Email,
			Name:      loan.User.FullName,
			BookTitle: bookTitle(loan),
			Date:      &due,
			Days:      s.Calculator.DaysRemaining(loan.DueDate),
		})
	}

	logger.Info("Due reminders sent", map[string]interface{}{"count": len(loans)})
	return len(loans), nil
}

func bookTitle(loan *model.Loan) string {
	if loan.Book != nil {
		return loan.Book.Title
	}
	return loan.BookID.String()
}
