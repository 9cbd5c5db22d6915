package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	memberModel "library-lite/internal/domains/member/model"
	paymentModel "library-lite/internal/domains/payment/model"
	reportModel "library-lite/internal/domains/report/model"
	reportRepo "library-lite/internal/domains/report/repository"
	reservationModel "library-lite/internal/domains/reservation/model"
)

type reports struct{ *Store }

func (s *Store) Reports() reportRepo.Repository { return reports{s} }

func (r reports) CountUsers(ctx context.Context) (int, error) {
	defer r.lock(nil)()
	return len(r.users), nil
}

func (r reports) CountMembers(ctx context.Context, activeOnly bool) (int, error) {
	defer r.lock(nil)()
	n := 0
	for _, m := range r.members {
		if !activeOnly || m.Status == memberModel.StatusActive {
			n++
		}
	}
	return n, nil
}

func (r reports) CountBooks(ctx context.Context) (int, error) {
	defer r.lock(nil)()
	return len(r.books), nil
}

func (r reports) CountAuthors(ctx context.Context) (int, error) {
	defer r.lock(nil)()
	return len(r.authors), nil
}

func (r reports) SumAvailableCopies(ctx context.Context) (int, error) {
	defer r.lock(nil)()
	n := 0
	for _, b := range r.books {
		n += b.AvailableCopies
	}
	return n, nil
}

func (r reports) CountOpenLoans(ctx context.Context) (int, error) {
	defer r.lock(nil)()
	n := 0
	for _, l := range r.loans {
		if l.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r reports) CountOverdueLoans(ctx context.Context, at time.Time) (int, error) {
	defer r.lock(nil)()
	n := 0
	for _, l := range r.loans {
		if l.IsOpen() && l.DueDate.Before(at) {
			n++
		}
	}
	return n, nil
}

func (r reports) CountPendingReservations(ctx context.Context) (int, error) {
	defer r.lock(nil)()
	n := 0
	for _, res := range r.reservations {
		if res.Status == reservationModel.StatusPending {
			n++
		}
	}
	return n, nil
}

func (r reports) PaymentTotals(ctx context.Context) (int, decimal.Decimal, error) {
	defer r.lock(nil)()
	n, total := 0, decimal.Zero
	for _, p := range r.payments {
		if p.Status == paymentModel.StatusCompleted {
			n++
			total = total.Add(p.Amount)
		}
	}
	return n, total, nil
}

func (r reports) TopBorrowedBooks(ctx context.Context, limit int) ([]reportModel.TopBook, error) {
	defer r.lock(nil)()
	counts := map[uuid.UUID]int{}
	for _, l := range r.loans {
		counts[l.BookID]++
	}
	out := make([]reportModel.TopBook, 0, len(counts))
	for id, n := range counts {
		b := r.books[id]
		out = append(out, reportModel.TopBook{BookID: id, Title: b.Title, Author: b.AuthorName, BorrowCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BorrowCount != out[j].BorrowCount {
			return out[i].BorrowCount > out[j].BorrowCount
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r reports) GenreDistribution(ctx context.Context, limit int) ([]reportModel.GenreCount, error) {
	defer r.lock(nil)()
	counts := map[string]int{}
	for _, b := range r.books {
		for _, g := range b.Genre {
			counts[g]++
		}
	}
	out := make([]reportModel.GenreCount, 0, len(counts))
	for g, n := range counts {
		out = append(out, reportModel.GenreCount{Genre: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r reports) LoanStats(ctx context.Context) (*reportModel.LoanStats, error) {
	defer r.lock(nil)()
	stats := &reportModel.LoanStats{
		ByStatus:   map[string]int{"borrowed": 0, "overdue": 0, "returned": 0},
		TotalFines: decimal.Zero,
	}
	var (
		totalDays float64
		returned  int
	)
	for _, l := range r.loans {
		stats.ByStatus[l.Status]++
		stats.TotalLoans++
		stats.TotalFines = stats.TotalFines.Add(l.Fine)
		if l.ReturnDate != nil {
			totalDays += l.ReturnDate.Sub(l.BorrowDate).Hours() / 24
			returned++
		}
	}
	if returned > 0 {
		stats.AverageLoanDuration = totalDays / float64(returned)
	}
	return stats, nil
}

func (r reports) SumTotalCopies(ctx context.Context) (int, error) {
	defer r.lock(nil)()
	n := 0
	for _, b := range r.books {
		n += b.TotalCopies
	}
	return n, nil
}

func (r reports) Distribution(ctx context.Context, dim reportModel.Dimension) ([]reportModel.Bucket, error) {
	defer r.lock(nil)()
	counts := map[string]int{}
	switch dim {
	case reportModel.DimUserRole:
		for _, u := range r.users {
			counts[u.Role]++
		}
	case reportModel.DimMemberStatus:
		for _, m := range r.members {
			counts[m.Status]++
		}
	case reportModel.DimMembershipType:
		for _, m := range r.members {
			counts[m.MembershipType]++
		}
	case reportModel.DimBookLanguage:
		for _, b := range r.books {
			counts[b.Language]++
		}
	default:
		return nil, fmt.Errorf("unknown distribution dimension %q", dim)
	}

	out := make([]reportModel.Bucket, 0, len(counts))
	for v, n := range counts {
		out = append(out, reportModel.Bucket{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

func (r reports) TopBorrowers(ctx context.Context, limit int) ([]reportModel.TopBorrower, error) {
	defer r.lock(nil)()
	counts := map[uuid.UUID]int{}
	for _, l := range r.loans {
		counts[l.UserID]++
	}
	out := make([]reportModel.TopBorrower, 0, len(counts))
	for id, n := range counts {
		u := r.users[id]
		out = append(out, reportModel.TopBorrower{UserID: id, Email: u.Email, FullName: u.FullName, BorrowCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BorrowCount != out[j].BorrowCount {
			return out[i].BorrowCount > out[j].BorrowCount
		}
		return out[i].FullName < out[j].FullName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r reports) TopAuthors(ctx context.Context, limit int) ([]reportModel.TopAuthor, error) {
	defer r.lock(nil)()
	counts := map[uuid.UUID]int{}
	for _, b := range r.books {
		counts[b.AuthorID]++
	}
	out := make([]reportModel.TopAuthor, 0, len(counts))
	for id, n := range counts {
		a := r.authors[id]
		out = append(out, reportModel.TopAuthor{AuthorID: id, Name: a.Name, Bio: a.Bio, BookCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookCount != out[j].BookCount {
			return out[i].BookCount > out[j].BookCount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r reports) LowStockBooks(ctx context.Context, threshold, limit int) ([]reportModel.LowStockBook, error) {
	defer r.lock(nil)()
	out := make([]reportModel.LowStockBook, 0)
	for _, b := range r.books {
		if b.AvailableCopies > threshold {
			continue
		}
		out = append(out, reportModel.LowStockBook{
			BookID:          b.ID,
			Title:           b.Title,
			ISBN:            b.ISBN,
			Author:          b.AuthorName,
			TotalCopies:     b.TotalCopies,
			AvailableCopies: b.AvailableCopies,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvailableCopies != out[j].AvailableCopies {
			return out[i].AvailableCopies < out[j].AvailableCopies
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
