package app

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"IslandWar/internal/account/domain"
	"IslandWar/internal/shared/logs"
	"IslandWar/internal/shared/security"
)

type AccountRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Save(ctx context.Context, a *domain.Account) error
}

type LoginHistoryRepo interface {
	Save(ctx context.Context, h domain.LoginHistory) error
}

// WorldEnroller creates the game-side profile and starting city for a new
// account. Implemented by the player context so identity stays decoupled
// from game state.
type WorldEnroller interface {
	Enroll(ctx context.Context, accountID, username string) error
}

type PwdHasher func(plaintext, salt string) string

type RandSeq func(n int) string

type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

type LoginResp struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Token     string `json:"token"`
}

type RegisterReq struct {
	Username string `json:"username" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required,min=6"`
	IP       string `json:"-"`
}

type Service struct {
	repo     AccountRepo
	history  LoginHistoryRepo
	enroller WorldEnroller
	hasher   PwdHasher
	randSeq  RandSeq
}

func NewService(repo AccountRepo, history LoginHistoryRepo, enroller WorldEnroller, hasher PwdHasher, randSeq RandSeq) *Service {
	return &Service{repo: repo, history: history, enroller: enroller, hasher: hasher, randSeq: randSeq}
}

func (s *Service) Login(ctx context.Context, req LoginReq) (*LoginResp, error) {
	acc, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials.WithData("reason", "no such account")
		}
		return nil, ErrUnavailable.WithCause(err)
	}
	if acc.Disabled() {
		return nil, ErrInvalidCredentials.WithData("reason", "account disabled")
	}

	accountID := strconv.Itoa(acc.UID)
	if !acc.CheckPassword(req.Password, s.hasher) {
		s.record(ctx, acc.UID, req.IP, domain.LoginFail)
		return nil, ErrInvalidCredentials.WithData("reason", "wrong password")
	}

	token, err := security.Award(accountID)
	if err != nil {
		return nil, ErrInternalServer.WithData("uid", acc.UID).WithCause(err)
	}
	s.record(ctx, acc.UID, req.IP, domain.LoginSuccess)

	return &LoginResp{AccountID: accountID, Username: acc.Username, Token: token}, nil
}

func (s *Service) Register(ctx context.Context, req RegisterReq) (*LoginResp, error) {
	existing, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, ErrUnavailable.WithCause(err)
	}
	if existing != nil {
		return nil, ErrUserExist
	}

	now := time.Now()
	salt := s.randSeq(16)
	acc := &domain.Account{
		Username: req.Username,
		Salt:     salt,
		Passwd:   s.hasher(req.Password, salt),
		Status:   domain.StatusActive,
		Ctime:    now,
		Mtime:    now,
	}
	if err := s.repo.Save(ctx, acc); err != nil {
		return nil, ErrUnavailable.WithCause(err)
	}

	accountID := strconv.Itoa(acc.UID)
	if s.enroller != nil {
		if err := s.enroller.Enroll(ctx, accountID, acc.Username); err != nil {
			return nil, ErrUnavailable.WithCause(err)
		}
	}

	token, err := security.Award(accountID)
	if err != nil {
		return nil, ErrInternalServer.WithData("uid", acc.UID).WithCause(err)
	}
	return &LoginResp{AccountID: accountID, Username: acc.Username, Token: token}, nil
}

// record is best-effort; a failed history write never blocks a login.
func (s *Service) record(ctx context.Context, uid int, ip string, state int8) {
	if s.history == nil {
		return
	}
	h := domain.LoginHistory{UID: uid, IP: ip, State: state, CTime: time.Now()}
	if err := s.history.Save(ctx, h); err != nil {
		logs.Warn("login history write failed", zap.Int("uid", uid), zap.Error(err))
	}
}
