package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	activityRepo "library-lite/internal/domains/activity/repository"
	"library-lite/internal/domains/fine"
	loanModel "library-lite/internal/domains/loan/model"
	loanRepo "library-lite/internal/domains/loan/repository"
	memberModel "library-lite/internal/domains/member/model"
	memberRepo "library-lite/internal/domains/member/repository"
	paymentModel "library-lite/internal/domains/payment/model"
	paymentRepo "library-lite/internal/domains/payment/repository"
	"library-lite/internal/domains/report/model"
	"library-lite/internal/domains/report/repository"
	"library-lite/internal/shared"
	"library-lite/internal/shared/utils"
)

const (
	topBooksLimit       = 10
	recentActivityLimit = 10
	genreLimit          = 10
	topBorrowersLimit   = 10
	topAuthorsLimit     = 10
	lowStockThreshold   = 2
	lowStockLimit       = 20
)

type ServiceInterface interface {
	Overview(ctx context.Context) (*model.Overview, error)
	LoanStats(ctx context.Context) (*model.LoanStats, error)
	UserReport(ctx context.Context) (*model.UserReport, error)
	BookReport(ctx context.Context) (*model.BookReport, error)
	ExportLoans(ctx context.Context, filter loanModel.ListFilter) ([]byte, error)
	UserDashboard(ctx context.Context, actor shared.Actor, userID uuid.UUID) (*model.UserDashboard, error)
}

type Deps struct {
	Reports    repository.Repository
	Activity   activityRepo.Repository
	Loans      loanRepo.Repository
	Payments   paymentRepo.Repository
	Members    memberRepo.Repository
	Calculator *fine.Calculator
}

type reportService struct {
	Deps
}

func NewReportService(deps Deps) ServiceInterface {
	return &reportService{Deps: deps}
}

// Overview chạy các aggregate query song song; lỗi đầu tiên huỷ phần còn lại
func (s *reportService) Overview(ctx context.Context) (*model.Overview, error) {
	out := &model.Overview{GeneratedAt: s.Calculator.Now()}
	c := &out.Counts
	now := s.Calculator.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(6)

	assign := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	assign(&c.TotalUsers, s.Reports.CountUsers)
	assign(&c.TotalMembers, func(ctx context.Context) (int, error) { return s.Reports.CountMembers(ctx, false) })
	assign(&c.ActiveMembers, func(ctx context.Context) (int, error) { return s.Reports.CountMembers(ctx, true) })
	assign(&c.TotalBooks, s.Reports.CountBooks)
	assign(&c.TotalAuthors, s.Reports.CountAuthors)
	assign(&c.AvailableCopies, s.Reports.SumAvailableCopies)
	assign(&c.ActiveLoans, s.Reports.CountOpenLoans)
	assign(&c.OverdueLoans, func(ctx context.Context) (int, error) { return s.Reports.CountOverdueLoans(ctx, now) })
	assign(&c.PendingReservations, s.Reports.CountPendingReservations)

	g.Go(func() error {
		n, total, err := s.Reports.PaymentTotals(gctx)
		if err != nil {
			return err
		}
		c.TotalPayments, c.FinesCollected = n, total
		return nil
	})
	g.Go(func() (err error) {
		out.TopBooks, err = s.Reports.TopBorrowedBooks(gctx, topBooksLimit)
		return err
	})
	g.Go(func() (err error) {
		out.RecentActivity, err = s.Activity.Recent(gctx, recentActivityLimit)
		return err
	})
	g.Go(func() (err error) {
		out.GenreDistribution, err = s.Reports.GenreDistribution(gctx, genreLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *reportService) LoanStats(ctx context.Context) (*model.LoanStats, error) {
	return s.Reports.LoanStats(ctx)
}

func (s *reportService) UserReport(ctx context.Context) (*model.UserReport, error) {
	out := &model.UserReport{}
	g, gctx := errgroup.WithContext(ctx)

	distribution := func(dst *[]model.Bucket, dim model.Dimension) {
		g.Go(func() (err error) {
			*dst, err = s.Reports.Distribution(gctx, dim)
			return err
		})
	}
	distribution(&out.RoleDistribution, model.DimUserRole)
	distribution(&out.MemberStatusDistribution, model.DimMemberStatus)
	distribution(&out.MembershipTypeDistribution, model.DimMembershipType)
	g.Go(func() (err error) {
		out.TopBorrowers, err = s.Reports.TopBorrowers(gctx, topBorrowersLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *reportService) BookReport(ctx context.Context) (*model.BookReport, error) {
	out := &model.BookReport{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalCopies, err = s.Reports.SumTotalCopies(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.AvailableCopies, err = s.Reports.SumAvailableCopies(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.LanguageDistribution, err = s.Reports.Distribution(gctx, model.DimBookLanguage)
		return err
	})
	g.Go(func() (err error) {
		out.TopAuthors, err = s.Reports.TopAuthors(gctx, topAuthorsLimit)
		return err
	})
	g.Go(func() (err error) {
		out.LowStock, err = s.Reports.LowStockBooks(gctx, lowStockThreshold, lowStockLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.BorrowedCopies = out.TotalCopies - out.AvailableCopies
	return out, nil
}

// ExportLoans trả về file .xlsx của toàn bộ loans khớp filter (bỏ qua page/limit)
func (s *reportService) ExportLoans(ctx context.Context, filter loanModel.ListFilter) ([]byte, error) {
	if filter.Status != "" && !loanModel.ValidStatus(filter.Status) {
		return nil, loanModel.ErrInvalidStatusFilter
	}

	var all []loanModel.Loan
	filter.Limit = utils.MaxPageSize
	for page := 1; ; page++ {
		filter.Page = page
		loans, total, err := s.Loans.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, loans...)
		if len(loans) == 0 || len(all) >= total {
			break
		}
	}

	for i := range all {
		all[i].ApplyLiveFine(s.Calculator)
	}
	return buildLoansWorkbook(all)
}

// UserDashboard: stats + loans (daysRemaining, live fine) + payments. Chính user hoặc staff.
func (s *reportService) UserDashboard(ctx context.Context, actor shared.Actor, userID uuid.UUID) (*model.UserDashboard, error) {
	if !actor.CanActFor(userID) {
		return nil, model.ErrDashboardForbidden
	}

	var (
		loans    []loanModel.Loan
		payments []paymentModel.Payment
		member   *memberModel.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		loans, err = s.Loans.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		payments, err = s.Payments.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		m, err := s.Members.GetByUserID(gctx, userID)
		if err != nil && !errors.Is(err, memberModel.ErrMemberNotFound) {
			return err
		}
		member = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash := &model.UserDashboard{
		Loans:    make([]model.DashboardLoan, 0, len(loans)),
		Payments: payments,
	}
	stats := &dash.Stats
	stats.TotalBorrows = len(loans)
	stats.TotalFines = decimal.Zero
	stats.PaidFines = decimal.Zero

	for _, l := range loans {
		entry := model.DashboardLoan{Loan: l}
		switch {
		case !l.IsOpen():
			stats.ReturnedBorrows++
		case s.Calculator.IsOverdue(l.DueDate, nil):
			stats.OverdueBorrows++
		default:
			stats.ActiveBorrows++
		}
		if l.IsOpen() {
			days := s.Calculator.DaysRemaining(l.DueDate)
			entry.DaysRemaining = &days
			entry.Status = s.Calculator.Status(l.DueDate, nil)
			entry.ApplyLiveFine(s.Calculator)
		}
		stats.TotalFines = stats.TotalFines.Add(l.Fine)
		dash.Loans = append(dash.Loans, entry)
	}

	for _, p := range payments {
		if p.Status == paymentModel.StatusCompleted {
			stats.PaidFines = stats.PaidFines.Add(p.Amount)
		}
	}

	if member != nil {
		stats.MembershipType = member.MembershipType
		stats.MembershipStatus = member.Status
	}
	return dash, nil
}
