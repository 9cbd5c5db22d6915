package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	activityModel "library-lite/internal/domains/activity/model"
	activityRepo "library-lite/internal/domains/activity/repository"
	loanRepo "library-lite/internal/domains/loan/repository"
	"library-lite/internal/domains/payment/model"
	"library-lite/internal/domains/payment/repository"
	"library-lite/internal/infrastructure/queue"
	"library-lite/internal/shared"
	"library-lite/internal/shared/utils"
	"library-lite/pkg/database"
	"library-lite/pkg/logger"
)

type ServiceInterface interface {
	PayFine(ctx context.Context, actor shared.Actor, req *model.PayFineRequest) (*model.Payment, error)
	GetPayment(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Payment, error)
	ListPayments(ctx context.Context, filter model.ListFilter) ([]model.Payment, int, error)
	UserHistory(ctx context.Context, actor shared.Actor, userID uuid.UUID) (*model.UserHistory, error)
}

type Deps struct {
	Tx       database.TxManager
	Payments repository.Repository
	Loans    loanRepo.Repository
	Activity activityRepo.Repository
	Clock    shared.Clock
	Notifier queue.Notifier
}

type paymentService struct {
	Deps
}

func NewPaymentService(deps Deps) ServiceInterface {
	if deps.Clock == nil {
		deps.Clock = shared.SystemClock()
	}
	if deps.Notifier == nil {
		deps.Notifier = queue.NopNotifier{}
	}
	return &paymentService{Deps: deps}
}

// PayFine ghi nhận payment completed cho fine đã persist của loan.
// Fine chỉ có sau khi return nên loan đang mở luôn bị từ chối với ErrNoFine.
func (s *paymentService) PayFine(ctx context.Context, actor shared.Actor, req *model.PayFineRequest) (*model.Payment, error) {
	// Step 1: Member chỉ trả cho chính mình
	if !actor.CanActFor(req.UserID) {
		return nil, model.ErrPaymentForbidden
	}

	// Số tiền được lưu ở NUMERIC(10,2), không làm tròn ngầm
	if !req.Amount.IsPositive() || !utils.IsCentPrecision(req.Amount) {
		return nil, model.ErrInvalidAmount
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = model.MethodCash
	}
	txRef := ulid.Make().String()
	if req.TransactionID != nil {
		if ref := strings.TrimSpace(*req.TransactionID); ref != "" {
			txRef = ref
		}
	}

	// Step 2: Transaction: lock loan -> preconditions -> insert -> activity
	var bookTitle, email, name string
	payment, err := database.WithTransactionResult(ctx, s.Tx, func(tx pgx.Tx) (*model.Payment, error) {
		loan, err := s.Loans.GetByIDForUpdateWithTx(ctx, tx, req.LoanID)
		if err != nil {
			return nil, err
		}
		if loan.UserID != req.UserID {
			return nil, model.ErrPaymentForbidden
		}
		if !loan.Fine.IsPositive() {
			return nil, model.ErrNoFine
		}
		if req.Amount.GreaterThan(loan.Fine) {
			return nil, model.ErrOverpayment.WithDetails(map[string]interface{}{
				"fine":   loan.Fine.StringFixed(2),
				"amount": req.Amount.StringFixed(2),
			})
		}

		paid, err := s.Payments.HasCompletedForLoanWithTx(ctx, tx, loan.ID)
		if err != nil {
			return nil, err
		}
		if paid {
			return nil, model.ErrAlreadyPaid
		}

		loanID := loan.ID
		payment := &model.Payment{
			ID:            uuid.New(),
			UserID:        req.UserID,
			LoanID:        &loanID,
			Amount:        req.Amount,
			PaymentMethod: method,
			Status:        model.StatusCompleted,
			TransactionID: &txRef,
			PaymentDate:   s.Clock.Now(),
		}
		if err := s.Payments.CreateWithTx(ctx, tx, payment); err != nil {
			return nil, err
		}

		entry := activityModel.New(actor.UserID, shared.ActionPayFine,
			fmt.Sprintf("Paid fine of %s for loan %s", payment.Amount.StringFixed(2), loan.ID),
			map[string]interface{}{
				"paymentId":     payment.ID,
				"loanId":        loan.ID,
				"payerId":       req.UserID,
				"amount":        payment.Amount.StringFixed(2),
				"paymentMethod": method,
			})
		if err := s.Activity.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		payment.User = loan.User
		payment.Book = loan.Book
		if loan.Book != nil {
			bookTitle = loan.Book.Title
		}
		if loan.User != nil {
			email, name = loan.User.Email, loan.User.FullName
		}
		return payment, nil
	})
	if err != nil {
		return nil, err
	}

	// Step 3: Receipt
	if email != "" {
		s.Notifier.Notify(ctx, shared.EmailPayload{
			Template:  shared.TemplateFinePaid,
			To:        email,
			Name:      name,
			BookTitle: bookTitle,
			Amount:    payment.Amount.StringFixed(2),
		})
	}

	logger.Info("Fine paid", map[string]interface{}{
		"payment_id": payment.ID.String(),
		"loan_id":    req.LoanID.String(),
		"amount":     payment.Amount.StringFixed(2),
	})
	return payment, nil
}

func (s *paymentService) GetPayment(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(payment.UserID) {
		return nil, model.ErrPaymentForbidden
	}
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter model.ListFilter) ([]model.Payment, int, error) {
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return nil, 0, model.ErrInvalidStatusFilter
	}
	return s.Payments.List(ctx, filter)
}

func (s *paymentService) UserHistory(ctx context.Context, actor shared.Actor, userID uuid.UUID) (*model.UserHistory, error) {
	if !actor.CanActFor(userID) {
		return nil, model.ErrPaymentForbidden
	}
	payments, err := s.Payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.Payments.TotalPaidByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.UserHistory{Payments: payments, TotalPaid: total}, nil
}
