package app

import (
	"context"
	"errors"
	"testing"

	"IslandWar/internal/account/domain"
	"IslandWar/internal/shared/security"
)

type fakeAccountRepo struct {
	byName map[string]*domain.Account
	getErr error

	saveCalls int
	saveErr   error
	nextUID   int
}

func (r *fakeAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	acc, ok := r.byName[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc, nil
}

func (r *fakeAccountRepo) Save(ctx context.Context, a *domain.Account) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	if a.UID == 0 {
		r.nextUID++
		a.UID = r.nextUID
	}
	if r.byName == nil {
		r.byName = map[string]*domain.Account{}
	}
	r.byName[a.Username] = a
	return nil
}

type fakeHistoryRepo struct {
	calls    int
	lastSave domain.LoginHistory
	err      error
}

func (r *fakeHistoryRepo) Save(ctx context.Context, h domain.LoginHistory) error {
	r.calls++
	r.lastSave = h
	return r.err
}

type fakeEnroller struct {
	calls     int
	accountID string
	username  string
	err       error
}

func (e *fakeEnroller) Enroll(ctx context.Context, accountID, username string) error {
	e.calls++
	e.accountID = accountID
	e.username = username
	return e.err
}

func plainHasher(pwd, salt string) string { return pwd + ":" + salt }

func fixedSeq(n int) string { return "saltsaltsaltsalt"[:n] }

func activeAccount(uid int, username, password string) *domain.Account {
	return &domain.Account{
		UID:      uid,
		Username: username,
		Salt:     "s1",
		Passwd:   plainHasher(password, "s1"),
		Status:   domain.StatusActive,
	}
}

func TestLogin_SuccessAwardsTokenAndRecordsHistory(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	repo := &fakeAccountRepo{byName: map[string]*domain.Account{
		"kratos": activeAccount(7, "kratos", "sparta"),
	}}
	hist := &fakeHistoryRepo{}
	s := NewService(repo, hist, nil, plainHasher, fixedSeq)

	resp, err := s.Login(context.Background(), LoginReq{Username: "kratos", Password: "sparta", IP: "1.2.3.4"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.AccountID != "7" || resp.Username != "kratos" || resp.Token == "" {
		t.Fatalf("resp = %+v", resp)
	}
	claims, err := security.ParseToken(resp.Token)
	if err != nil || claims.AccountID != "7" {
		t.Fatalf("token should carry the account id: %v %v", claims, err)
	}
	if hist.calls != 1 || hist.lastSave.State != domain.LoginSuccess || hist.lastSave.IP != "1.2.3.4" {
		t.Fatalf("history = %+v (%d calls)", hist.lastSave, hist.calls)
	}
}

func TestLogin_WrongPasswordRecordsFailure(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	repo := &fakeAccountRepo{byName: map[string]*domain.Account{
		"kratos": activeAccount(7, "kratos", "sparta"),
	}}
	hist := &fakeHistoryRepo{}
	s := NewService(repo, hist, nil, plainHasher, fixedSeq)

	_, err := s.Login(context.Background(), LoginReq{Username: "kratos", Password: "athens"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if hist.calls != 1 || hist.lastSave.State != domain.LoginFail {
		t.Fatalf("failed login must be recorded: %+v (%d calls)", hist.lastSave, hist.calls)
	}
}

func TestLogin_UnknownAndDisabledLookTheSame(t *testing.T) {
	repo := &fakeAccountRepo{byName: map[string]*domain.Account{}}
	s := NewService(repo, nil, nil, plainHasher, fixedSeq)

	_, err := s.Login(context.Background(), LoginReq{Username: "nobody", Password: "x"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: want ErrInvalidCredentials, got %v", err)
	}

	disabled := activeAccount(8, "old", "pw")
	disabled.Status = domain.StatusDisabled
	repo.byName["old"] = disabled
	_, err = s.Login(context.Background(), LoginReq{Username: "old", Password: "pw"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("disabled user: want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_MissingSecretIsSystemErrorWithoutHistory(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	repo := &fakeAccountRepo{byName: map[string]*domain.Account{
		"kratos": activeAccount(7, "kratos", "sparta"),
	}}
	hist := &fakeHistoryRepo{}
	s := NewService(repo, hist, nil, plainHasher, fixedSeq)

	_, err := s.Login(context.Background(), LoginReq{Username: "kratos", Password: "sparta"})
	if !errors.Is(err, ErrInternalServer) {
		t.Fatalf("want ErrInternalServer, got %v", err)
	}
	if !errors.Is(err, security.ErrJWTSecretMissing) {
		t.Fatalf("cause chain lost: %v", err)
	}
	if hist.calls != 0 {
		t.Fatalf("no history on a token failure, got %d writes", hist.calls)
	}
}

func TestRegister_CreatesAccountAndEnrollsIntoTheWorld(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	repo := &fakeAccountRepo{}
	enroller := &fakeEnroller{}
	s := NewService(repo, nil, enroller, plainHasher, fixedSeq)

	resp, err := s.Register(context.Background(), RegisterReq{Username: "atreus", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.AccountID != "1" || resp.Token == "" {
		t.Fatalf("resp = %+v", resp)
	}

	saved := repo.byName["atreus"]
	if saved == nil || saved.Passwd != plainHasher("secret1", saved.Salt) || saved.Salt == "" {
		t.Fatalf("stored account wrong: %+v", saved)
	}
	if saved.Passwd == "secret1" {
		t.Fatal("password must not be stored in the clear")
	}
	if enroller.calls != 1 || enroller.accountID != "1" || enroller.username != "atreus" {
		t.Fatalf("enroller = %+v", enroller)
	}
}

func TestRegister_TakenUsernameIsRejectedBeforeSave(t *testing.T) {
	repo := &fakeAccountRepo{byName: map[string]*domain.Account{
		"atreus": activeAccount(1, "atreus", "pw"),
	}}
	s := NewService(repo, nil, nil, plainHasher, fixedSeq)

	_, err := s.Register(context.Background(), RegisterReq{Username: "atreus", Password: "secret1"})
	if !errors.Is(err, ErrUserExist) {
		t.Fatalf("want ErrUserExist, got %v", err)
	}
	if repo.saveCalls != 0 {
		t.Fatalf("no save on a duplicate, got %d", repo.saveCalls)
	}
}

func TestRegister_EnrollFailureSurfaces(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	repo := &fakeAccountRepo{}
	enroller := &fakeEnroller{err: errors.New("world full")}
	s := NewService(repo, nil, enroller, plainHasher, fixedSeq)

	_, err := s.Register(context.Background(), RegisterReq{Username: "atreus", Password: "secret1"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
