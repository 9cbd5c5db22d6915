package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"library-lite/internal/domains/report/model"
)

// Repository chứa các aggregate query chỉ dùng cho reporting
type Repository interface {
	// Counts: mỗi field một query riêng để chạy song song
	CountUsers(ctx context.Context) (int, error)
	CountMembers(ctx context.Context, activeOnly bool) (int, error)
	CountBooks(ctx context.Context) (int, error)
	CountAuthors(ctx context.Context) (int, error)
	SumAvailableCopies(ctx context.Context) (int, error)
	CountOpenLoans(ctx context.Context) (int, error)
	CountOverdueLoans(ctx context.Context, now time.Time) (int, error)
	CountPendingReservations(ctx context.Context) (int, error)
	// PaymentTotals: số payment completed và tổng tiền đã thu
	PaymentTotals(ctx context.Context) (int, decimal.Decimal, error)

	TopBorrowedBooks(ctx context.Context, limit int) ([]model.TopBook, error)
	GenreDistribution(ctx context.Context, limit int) ([]model.GenreCount, error)
	LoanStats(ctx context.Context) (*model.LoanStats, error)

	SumTotalCopies(ctx context.Context) (int, error)
	// Distribution group theo dim, sort count giảm dần
	Distribution(ctx context.Context, dim model.Dimension) ([]model.Bucket, error)
	TopBorrowers(ctx context.Context, limit int) ([]model.TopBorrower, error)
	TopAuthors(ctx context.Context, limit int) ([]model.TopAuthor, error)
	// LowStockBooks: books có available_copies <= threshold, ít bản nhất trước
	LowStockBooks(ctx context.Context, threshold, limit int) ([]model.LowStockBook, error)
}
