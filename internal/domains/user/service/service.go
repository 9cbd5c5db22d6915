package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-lite/internal/auth"
	memberModel "library-lite/internal/domains/member/model"
	memberRepo "library-lite/internal/domains/member/repository"
	"library-lite/internal/domains/user/model"
	"library-lite/internal/domains/user/repository"
	"library-lite/internal/shared"
	"library-lite/internal/shared/apperror"
	"library-lite/pkg/database"
	"library-lite/pkg/logger"
)

type ServiceInterface interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	// Authenticate map bearer token -> actor (dùng bởi auth middleware)
	Authenticate(ctx context.Context, token string) (*shared.Actor, error)

	GetProfile(ctx context.Context, actor shared.Actor, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, actor shared.Actor, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)
	CreateStaff(ctx context.Context, req *model.CreateStaffRequest) (*model.User, error)
}

// passwordSetter: provider hỗ trợ đặt lại password (local provider)
type passwordSetter interface {
	SetPassword(ctx context.Context, email, password string) (*auth.Identity, error)
}

type userService struct {
	tx             database.TxManager
	repo           repository.Repository
	memberRepo     memberRepo.Repository
	provider       auth.Provider
	clock          shared.Clock
	memberTermDays int
}

func NewUserService(
	tx database.TxManager,
	repo repository.Repository,
	memberRepo memberRepo.Repository,
	provider auth.Provider,
	clock shared.Clock,
	memberTermDays int,
) ServiceInterface {
	return &userService{
		tx:             tx,
		repo:           repo,
		memberRepo:     memberRepo,
		provider:       provider,
		clock:          clock,
		memberTermDays: memberTermDays,
	}
}

// Signup tạo identity ở provider, upsert user theo email và tạo basic membership
func (s *userService) Signup(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error) {
	// Step 1: Identity provider
	identity, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, mapProviderError(err)
	}

	// Step 2: User + membership trong một transaction
	user := &model.User{
		AuthID:   &identity.ID,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     shared.RoleMember,
	}
	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.UpsertByEmailWithTx(ctx, tx, user); err != nil {
			return err
		}
		if user.Role != shared.RoleMember {
			return nil
		}
		member := memberModel.NewBasic(user.ID, s.clock.Now(), s.memberTermDays)
		err := s.memberRepo.CreateWithTx(ctx, tx, member)
		if errors.Is(err, memberModel.ErrMemberExists) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	// Step 3: Session (provider có thể yêu cầu xác nhận email trước)
	session, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		logger.Info("Signup completed without session", map[string]interface{}{
			"email":    req.Email,
			"provider": s.provider.Name(),
			"error":    err.Error(),
		})
		return &model.AuthResponse{User: user}, nil
	}
	return &model.AuthResponse{User: user, Session: session}, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	session, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, mapProviderError(err)
	}

	user, err := s.userForIdentity(ctx, session.Identity)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{User: user, Session: session}, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return mapProviderError(s.provider.SignOut(ctx, token))
}

func (s *userService) Authenticate(ctx context.Context, token string) (*shared.Actor, error) {
	if token == "" {
		return nil, model.ErrInvalidToken
	}
	identity, err := s.provider.VerifyToken(ctx, token)
	if err != nil {
		return nil, mapProviderError(err)
	}

	user, err := s.repo.GetByAuthID(ctx, identity.ID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrNotProvisioned
	}
	if err != nil {
		return nil, err
	}

	actor := user.Actor()
	return &actor, nil
}

func (s *userService) GetProfile(ctx context.Context, actor shared.Actor, userID uuid.UUID) (*model.User, error) {
	if !actor.CanActFor(userID) {
		return nil, model.ErrProfileForbidden
	}
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile: chính user đó hoặc admin
func (s *userService) UpdateProfile(ctx context.Context, actor shared.Actor, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, model.ErrProfileForbidden
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Address != nil {
		user.Address = req.Address
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateStaff tạo (hoặc nâng quyền) librarian/admin. Chạy lại an toàn với local provider.
func (s *userService) CreateStaff(ctx context.Context, req *model.CreateStaffRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Validation("VALIDATION_ERROR", "Invalid staff account").WithDetails(err)
	}

	var (
		identity *auth.Identity
		err      error
	)
	if setter, ok := s.provider.(passwordSetter); ok {
		identity, err = setter.SetPassword(ctx, req.Email, req.Password)
	} else {
		identity, err = s.provider.SignUp(ctx, req.Email, req.Password)
	}
	if err != nil {
		return nil, mapProviderError(err)
	}

	user := &model.User{
		AuthID:   &identity.ID,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	}
	if err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		return s.repo.UpsertByEmailWithTx(ctx, tx, user)
	}); err != nil {
		return nil, err
	}

	if user.Role != req.Role || user.FullName != req.FullName {
		user.Role = req.Role
		user.FullName = req.FullName
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// userForIdentity tìm user theo auth id; user tạo trước khi có identity được gắn theo email
func (s *userService) userForIdentity(ctx context.Context, identity auth.Identity) (*model.User, error) {
	user, err := s.repo.GetByAuthID(ctx, identity.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	user, err = s.repo.GetByEmail(ctx, identity.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrNotProvisioned
	}
	if err != nil {
		return nil, err
	}

	user.AuthID = &identity.ID
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func mapProviderError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrEmailTaken):
		return model.ErrEmailTaken
	case errors.Is(err, auth.ErrInvalidCredentials):
		return model.ErrInvalidCredentials
	case errors.Is(err, auth.ErrInvalidToken):
		return model.ErrInvalidToken
	default:
		return apperror.Internal(err)
	}
}
