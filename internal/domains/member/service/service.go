package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-lite/internal/domains/fine"
	"library-lite/internal/domains/member/model"
	"library-lite/internal/domains/member/repository"
	userRepo "library-lite/internal/domains/user/repository"
	"library-lite/internal/infrastructure/queue"
	"library-lite/internal/shared"
	"library-lite/pkg/database"
	"library-lite/pkg/logger"
)

const (
	recentLoansLimit    = 10
	defaultReminderDays = 7
)

type ServiceInterface interface {
	ListMembers(ctx context.Context, filter model.ListFilter) ([]model.Member, int, error)
	GetMember(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Member, error)
	CreateMember(ctx context.Context, req *model.CreateMemberRequest) (*model.Member, error)
	UpdateMember(ctx context.Context, id uuid.UUID, req *model.UpdateMemberRequest) (*model.Member, error)
	DeleteMember(ctx context.Context, id uuid.UUID) error

	// SendExpiryReminders gửi email cho member hết hạn trong ReminderDays ngày tới.
	// Days trong email = số ngày còn lại (làm tròn lên).
	SendExpiryReminders(ctx context.Context) (int, error)
}

type Deps struct {
	Tx           database.TxManager
	Members      repository.Repository
	Users        userRepo.Repository
	Clock        shared.Clock
	Notifier     queue.Notifier
	TermDays     int
	ReminderDays int
}

type memberService struct {
	Deps
}

func NewMemberService(deps Deps) ServiceInterface {
	if deps.Clock == nil {
		deps.Clock = shared.SystemClock()
	}
	if deps.Notifier == nil {
		deps.Notifier = queue.NopNotifier{}
	}
	if deps.TermDays <= 0 {
		deps.TermDays = 30
	}
	if deps.ReminderDays <= 0 {
		deps.ReminderDays = defaultReminderDays
	}
	return &memberService{Deps: deps}
}

func (s *memberService) ListMembers(ctx context.Context, filter model.ListFilter) ([]model.Member, int, error) {
	return s.Members.List(ctx, filter)
}

// GetMember trả về member kèm 10 loan gần nhất. Member chỉ xem được membership của mình.
func (s *memberService) GetMember(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Member, error) {
	member, err := s.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(member.UserID) {
		return nil, model.ErrMemberForbidden
	}
	member.RecentLoans, err = s.Members.RecentLoans(ctx, member.UserID, recentLoansLimit)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) CreateMember(ctx context.Context, req *model.CreateMemberRequest) (*model.Member, error) {
	// Step 1: User phải tồn tại
	user, err := s.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	// Step 2: Mỗi user một membership
	if _, err := s.Members.GetByUserID(ctx, req.UserID); err == nil {
		return nil, model.ErrMemberExists
	} else if !errors.Is(err, model.ErrMemberNotFound) {
		return nil, err
	}

	// Step 3: Build entity với default basic/active/TermDays
	start := s.Clock.Now()
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	member := model.NewBasic(req.UserID, start, s.TermDays)
	if req.MembershipType != nil {
		member.MembershipType = *req.MembershipType
	}
	if req.Status != nil {
		member.Status = *req.Status
	}
	if req.ExpiryDate != nil {
		expiry := req.ExpiryDate.UTC()
		member.ExpiryDate = &expiry
	}

	if err := s.Tx.WithTx(ctx, func(tx pgx.Tx) error {
		return s.Members.CreateWithTx(ctx, tx, member)
	}); err != nil {
		return nil, err
	}

	member.User = user.Ref()
	member.Phone = user.Phone
	logger.Info("Member created", map[string]interface{}{
		"member_id": member.ID.String(),
		"user_id":   user.ID.String(),
	})
	return member, nil
}

func (s *memberService) UpdateMember(ctx context.Context, id uuid.UUID, req *model.UpdateMemberRequest) (*model.Member, error) {
	member, err := s.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.MembershipType != nil {
		member.MembershipType = *req.MembershipType
	}
	if req.Status != nil {
		member.Status = *req.Status
	}
	if req.ExpiryDate != nil {
		expiry := req.ExpiryDate.UTC()
		if !expiry.After(member.StartDate) {
			return nil, model.ErrExpiryBeforeStart
		}
		member.ExpiryDate = &expiry
	}

	if err := s.Members.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// DeleteMember bị từ chối khi user còn loan chưa trả
func (s *memberService) DeleteMember(ctx context.Context, id uuid.UUID) error {
	member, err := s.Members.GetByID(ctx, id)
	if err != nil {
		return err
	}
	active, err := s.Members.CountActiveLoans(ctx, member.UserID)
	if err != nil {
		return err
	}
	if active > 0 {
		return model.ErrMemberHasLoans.WithDetails(map[string]interface{}{"activeLoans": active})
	}
	return s.Members.Delete(ctx, id)
}

func (s *memberService) SendExpiryReminders(ctx context.Context) (int, error) {
	now := s.Clock.Now()
	members, err := s.Members.ListExpiring(ctx, now, now.AddDate(0, 0, s.ReminderDays))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range members {
		m := &members[i]
		if m.User == nil || m.ExpiryDate == nil {
			continue
		}
		s.Notifier.Notify(ctx, shared.EmailPayload{
			Template: shared.TemplateMembershipExpiring,
			To:       m.User.Email,
			Name:     m.User.FullName,
			Date:     m.ExpiryDate,
			Days:     fine.DaysOverdue(now, *m.ExpiryDate),
		})
		sent++
	}

	logger.Info("Membership reminders sent", map[string]interface{}{"count": sent})
	return sent, nil
}
