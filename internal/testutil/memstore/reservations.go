package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	reservationModel "library-lite/internal/domains/reservation/model"
	reservationRepo "library-lite/internal/domains/reservation/repository"
	"library-lite/internal/shared"
)

type reservations struct{ *Store }

func (s *Store) Reservations() reservationRepo.Repository { return reservations{s} }

func (r reservations) decorate(res reservationModel.Reservation) reservationModel.Reservation {
	if u, ok := r.users[res.UserID]; ok {
		res.User = &shared.UserRef{ID: u.ID, Email: u.Email, FullName: u.FullName}
	}
	if b, ok := r.books[res.BookID]; ok {
		res.Book = &shared.BookRef{ID: b.ID, Title: b.Title, ISBN: b.ISBN}
	}
	return res
}

func (r reservations) pending(userID, bookID uuid.UUID) (uuid.UUID, bool) {
	for id, res := range r.reservations {
		if res.UserID == userID && res.BookID == bookID && res.Status == reservationModel.StatusPending {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (r reservations) CreateWithTx(ctx context.Context, tx pgx.Tx, res *reservationModel.Reservation) error {
	defer r.lock(tx)()
	if _, ok := r.pending(res.UserID, res.BookID); ok {
		return reservationModel.ErrPendingExists
	}
	res.UpdatedAt = now()
	stored := *res
	stored.User, stored.Book = nil, nil
	r.reservations[res.ID] = stored
	return nil
}

func (r reservations) HasPendingWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error) {
	defer r.lock(tx)()
	_, ok := r.pending(userID, bookID)
	return ok, nil
}

func (r reservations) GetByID(ctx context.Context, id uuid.UUID) (*reservationModel.Reservation, error) {
	defer r.lock(nil)()
	return r.get(id)
}

func (r reservations) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*reservationModel.Reservation, error) {
	defer r.lock(tx)()
	return r.get(id)
}

func (r reservations) get(id uuid.UUID) (*reservationModel.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, reservationModel.ErrReservationNotFound
	}
	res = r.decorate(res)
	return &res, nil
}

func (r reservations) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	defer r.lock(tx)()
	res, ok := r.reservations[id]
	if !ok {
		return reservationModel.ErrReservationNotFound
	}
	res.Status = status
	res.UpdatedAt = now()
	r.reservations[id] = res
	return nil
}

func (r reservations) ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]reservationModel.Reservation, error) {
	defer r.lock(nil)()
	out := make([]reservationModel.Reservation, 0)
	for _, res := range r.reservations {
		if res.UserID != userID || (status != "" && res.Status != status) {
			continue
		}
		out = append(out, r.decorate(res))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservedAt.After(out[j].ReservedAt) })
	return out, nil
}

func (r reservations) FulfillPendingWithTx(ctx context.Context, tx pgx.Tx, userID, bookID uuid.UUID) (bool, error) {
	defer r.lock(tx)()
	id, ok := r.pending(userID, bookID)
	if !ok {
		return false, nil
	}
	res := r.reservations[id]
	res.Status = reservationModel.StatusFulfilled
	res.UpdatedAt = now()
	r.reservations[id] = res
	return true, nil
}

func (r reservations) OldestPendingForBook(ctx context.Context, bookID uuid.UUID) (*reservationModel.Reservation, error) {
	defer r.lock(nil)()
	var oldest *reservationModel.Reservation
	for _, res := range r.reservations {
		if res.BookID != bookID || res.Status != reservationModel.StatusPending {
			continue
		}
		if oldest == nil || res.ReservedAt.Before(oldest.ReservedAt) {
			decorated := r.decorate(res)
			oldest = &decorated
		}
	}
	return oldest, nil
}

func (r reservations) ExpirePending(ctx context.Context, at time.Time) (int64, error) {
	defer r.lock(nil)()
	var n int64
	for id, res := range r.reservations {
		if res.Status == reservationModel.StatusPending && res.ExpiresAt.Before(at) {
			res.Status = reservationModel.StatusExpired
			res.UpdatedAt = now()
			r.reservations[id] = res
			n++
		}
	}
	return n, nil
}
