package memstore

import (
	"time"

	"github.com/google/uuid"

	activityModel "library-lite/internal/domains/activity/model"
	bookModel "library-lite/internal/domains/book/model"
	loanModel "library-lite/internal/domains/loan/model"
	memberModel "library-lite/internal/domains/member/model"
	paymentModel "library-lite/internal/domains/payment/model"
	reservationModel "library-lite/internal/domains/reservation/model"
	userModel "library-lite/internal/domains/user/model"
)

// =====================================================
// SEED HELPERS
// =====================================================

func (s *Store) AddUser(email, fullName, role string) userModel.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := userModel.User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  fullName,
		Role:      role,
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) AddAuthor(name string) bookModel.Author {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := bookModel.Author{ID: uuid.New(), Name: name, CreatedAt: now(), UpdatedAt: now()}
	s.authors[a.ID] = a
	return a
}

func (s *Store) AddBook(title, isbn string, authorID uuid.UUID, copies int) bookModel.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := bookModel.Book{
		ID:              uuid.New(),
		Title:           title,
		ISBN:            isbn,
		AuthorID:        authorID,
		AuthorName:      s.authors[authorID].Name,
		Language:        bookModel.DefaultLanguage,
		TotalCopies:     copies,
		AvailableCopies: copies,
		CreatedAt:       now(),
		UpdatedAt:       now(),
	}
	s.books[b.ID] = b
	return b
}

func (s *Store) AddMember(userID uuid.UUID, start time.Time, termDays int) memberModel.Member {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := *memberModel.NewBasic(userID, start, termDays)
	m.CreatedAt, m.UpdatedAt = now(), now()
	s.members[m.ID] = m
	return m
}

// PutLoan ghi thẳng loan (vd loan đã trả với fine) để dựng state cho test
func (s *Store) PutLoan(l loanModel.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	s.loans[l.ID] = l
}

func (s *Store) PutReservation(r reservationModel.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.reservations[r.ID] = r
}

// =====================================================
// INSPECTION HELPERS
// =====================================================

func (s *Store) Book(id uuid.UUID) bookModel.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id]
}

func (s *Store) Loan(id uuid.UUID) loanModel.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loans[id]
}

func (s *Store) Reservation(id uuid.UUID) reservationModel.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id]
}

func (s *Store) LoanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loans)
}

func (s *Store) PaymentsForLoan(loanID uuid.UUID) []paymentModel.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []paymentModel.Payment
	for _, p := range s.payments {
		if p.LoanID != nil && *p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out
}

// Activity trả về các entry có action (rỗng = tất cả) theo thứ tự ghi
func (s *Store) Activity(action string) []activityModel.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []activityModel.ActivityLog
	for _, e := range s.activity {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
