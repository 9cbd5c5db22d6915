// Package memstore là in-memory implementation của các repository, dùng trong service tests.
// WithTx serialize mọi transaction bằng một mutex và rollback snapshot khi fn trả lỗi.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	activityModel "library-lite/internal/domains/activity/model"
	bookModel "library-lite/internal/domains/book/model"
	loanModel "library-lite/internal/domains/loan/model"
	memberModel "library-lite/internal/domains/member/model"
	paymentModel "library-lite/internal/domains/payment/model"
	reservationModel "library-lite/internal/domains/reservation/model"
	userModel "library-lite/internal/domains/user/model"
	"library-lite/internal/shared/utils"
	"library-lite/pkg/database"
)

type state struct {
	users        map[uuid.UUID]userModel.User
	members      map[uuid.UUID]memberModel.Member
	authors      map[uuid.UUID]bookModel.Author
	books        map[uuid.UUID]bookModel.Book
	loans        map[uuid.UUID]loanModel.Loan
	reservations map[uuid.UUID]reservationModel.Reservation
	payments     map[uuid.UUID]paymentModel.Payment
	activity     []activityModel.ActivityLog
}

func (s state) clone() state {
	return state{
		users:        maps.Clone(s.users),
		members:      maps.Clone(s.members),
		authors:      maps.Clone(s.authors),
		books:        maps.Clone(s.books),
		loans:        maps.Clone(s.loans),
		reservations: maps.Clone(s.reservations),
		payments:     maps.Clone(s.payments),
		activity:     slices.Clone(s.activity),
	}
}

type Store struct {
	mu sync.Mutex
	state

	// FailActivity != nil làm mọi activity insert lỗi (test rollback)
	FailActivity error
}

var _ database.TxManager = (*Store)(nil)

func New() *Store {
	return &Store{state: state{
		users:        map[uuid.UUID]userModel.User{},
		members:      map[uuid.UUID]memberModel.Member{},
		authors:      map[uuid.UUID]bookModel.Author{},
		books:        map[uuid.UUID]bookModel.Book{},
		loans:        map[uuid.UUID]loanModel.Loan{},
		reservations: map[uuid.UUID]reservationModel.Reservation{},
		payments:     map[uuid.UUID]paymentModel.Payment{},
	}}
}

// memTx đánh dấu call đang nằm trong WithTx (mutex đã được giữ)
type memTx struct {
	pgx.Tx
}

func (s *Store) WithTx(ctx context.Context, fn database.TxFunc) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{})
}

// lock giữ mutex cho call ngoài transaction; trong WithTx mutex đã được giữ sẵn
func (s *Store) lock(tx pgx.Tx) func() {
	if tx != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func now() time.Time { return time.Now().UTC() }

func paginate[T any](items []T, page, limit int) []T {
	page, limit = utils.NormalizePage(page, limit)
	start := utils.Offset(page, limit)
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
