package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	memberModel "library-lite/internal/domains/member/model"
	memberRepo "library-lite/internal/domains/member/repository"
	userModel "library-lite/internal/domains/user/model"
	userRepo "library-lite/internal/domains/user/repository"
	"library-lite/internal/shared"
)

// =====================================================
// USERS
// =====================================================

type users struct{ *Store }

func (s *Store) Users() userRepo.Repository { return users{s} }

func (r users) UpsertByEmailWithTx(ctx context.Context, tx pgx.Tx, u *userModel.User) error {
	defer r.lock(tx)()

	for id, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			if u.AuthID != nil {
				for _, other := range r.users {
					if other.ID != id && other.AuthID != nil && *other.AuthID == *u.AuthID {
						return userModel.ErrEmailTaken
					}
				}
				existing.AuthID = u.AuthID
			}
			if existing.Phone == nil {
				existing.Phone = u.Phone
			}
			if existing.Address == nil {
				existing.Address = u.Address
			}
			existing.UpdatedAt = now()
			r.users[id] = existing
			*u = existing
			return nil
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt, u.UpdatedAt = now(), now()
	r.users[u.ID] = *u
	return nil
}

func (r users) GetByID(ctx context.Context, id uuid.UUID) (*userModel.User, error) {
	defer r.lock(nil)()
	u, ok := r.users[id]
	if !ok {
		return nil, userModel.ErrUserNotFound
	}
	return &u, nil
}

func (r users) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	defer r.lock(nil)()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, userModel.ErrUserNotFound
}

func (r users) GetByAuthID(ctx context.Context, authID string) (*userModel.User, error) {
	defer r.lock(nil)()
	for _, u := range r.users {
		if u.AuthID != nil && *u.AuthID == authID {
			return &u, nil
		}
	}
	return nil, userModel.ErrUserNotFound
}

func (r users) Update(ctx context.Context, u *userModel.User) error {
	defer r.lock(nil)()
	if _, ok := r.users[u.ID]; !ok {
		return userModel.ErrUserNotFound
	}
	u.UpdatedAt = now()
	r.users[u.ID] = *u
	return nil
}

// =====================================================
// MEMBERS
// =====================================================

type members struct{ *Store }

func (s *Store) Members() memberRepo.Repository { return members{s} }

func (r members) decorate(m memberModel.Member) memberModel.Member {
	if u, ok := r.users[m.UserID]; ok {
		m.User = &shared.UserRef{ID: u.ID, Email: u.Email, FullName: u.FullName}
		m.Phone = u.Phone
	}
	return m
}

func (r members) CreateWithTx(ctx context.Context, tx pgx.Tx, m *memberModel.Member) error {
	defer r.lock(tx)()

	if _, ok := r.users[m.UserID]; !ok {
		return memberModel.ErrMemberUserMissing
	}
	for _, existing := range r.members {
		if existing.UserID == m.UserID {
			return memberModel.ErrMemberExists
		}
	}
	m.CreatedAt, m.UpdatedAt = now(), now()
	r.members[m.ID] = *m
	return nil
}

func (r members) GetByID(ctx context.Context, id uuid.UUID) (*memberModel.Member, error) {
	defer r.lock(nil)()
	m, ok := r.members[id]
	if !ok {
		return nil, memberModel.ErrMemberNotFound
	}
	m = r.decorate(m)
	return &m, nil
}

func (r members) GetByUserID(ctx context.Context, userID uuid.UUID) (*memberModel.Member, error) {
	defer r.lock(nil)()
	for _, m := range r.members {
		if m.UserID == userID {
			m = r.decorate(m)
			return &m, nil
		}
	}
	return nil, memberModel.ErrMemberNotFound
}

func (r members) List(ctx context.Context, filter memberModel.ListFilter) ([]memberModel.Member, int, error) {
	defer r.lock(nil)()

	search := strings.ToLower(filter.Search)
	out := make([]memberModel.Member, 0)
	for _, m := range r.members {
		m = r.decorate(m)
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.MembershipType != "" && m.MembershipType != filter.MembershipType {
			continue
		}
		if search != "" && !memberMatches(m, search) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Page, filter.Limit), len(out), nil
}

func memberMatches(m memberModel.Member, search string) bool {
	if m.User != nil && (strings.Contains(strings.ToLower(m.User.FullName), search) ||
		strings.Contains(strings.ToLower(m.User.Email), search)) {
		return true
	}
	return m.Phone != nil && strings.Contains(strings.ToLower(*m.Phone), search)
}

func (r members) Update(ctx context.Context, m *memberModel.Member) error {
	defer r.lock(nil)()
	existing, ok := r.members[m.ID]
	if !ok {
		return memberModel.ErrMemberNotFound
	}
	existing.MembershipType = m.MembershipType
	existing.Status = m.Status
	existing.ExpiryDate = m.ExpiryDate
	existing.UpdatedAt = now()
	r.members[m.ID] = existing
	m.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r members) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.lock(nil)()
	if _, ok := r.members[id]; !ok {
		return memberModel.ErrMemberNotFound
	}
	delete(r.members, id)
	return nil
}

func (r members) CountActiveLoans(ctx context.Context, userID uuid.UUID) (int, error) {
	defer r.lock(nil)()
	n := 0
	for _, l := range r.loans {
		if l.UserID == userID && l.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r members) RecentLoans(ctx context.Context, userID uuid.UUID, limit int) ([]memberModel.LoanSummary, error) {
	defer r.lock(nil)()

	out := make([]memberModel.LoanSummary, 0)
	for _, l := range r.loans {
		if l.UserID != userID {
			continue
		}
		out = append(out, memberModel.LoanSummary{
			ID:         l.ID,
			BookID:     l.BookID,
			BookTitle:  r.books[l.BookID].Title,
			BorrowDate: l.BorrowDate,
			DueDate:    l.DueDate,
			ReturnDate: l.ReturnDate,
			Status:     l.Status,
			Fine:       l.Fine,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowDate.After(out[j].BorrowDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r members) ListExpiring(ctx context.Context, from, to time.Time) ([]memberModel.Member, error) {
	defer r.lock(nil)()

	out := make([]memberModel.Member, 0)
	for _, m := range r.members {
		if m.Status != memberModel.StatusActive || m.ExpiryDate == nil {
			continue
		}
		if m.ExpiryDate.Before(from) || !m.ExpiryDate.Before(to) {
			continue
		}
		out = append(out, r.decorate(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(*out[j].ExpiryDate) })
	return out, nil
}
