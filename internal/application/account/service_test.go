package account

import (
	"context"
	"errors"
	"testing"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/pkg/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockCodeVerifier struct{ mock.Mock }

func (m *mockCodeVerifier) Verify(ctx context.Context, codeType domain.CodeType, identifier, code string) error {
	return m.Called(ctx, codeType, identifier, code).Error(0)
}

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	args := m.Called(ctx, username)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) CreateWithDefaultTeam(ctx context.Context, a *domain.Account, t *domain.Team, tm *domain.TeamMember) error {
	return m.Called(ctx, a, t, tm).Error(0)
}
func (m *mockAccountStore) UpdateLastActiveMembership(ctx context.Context, username, tmbID string) error {
	return m.Called(ctx, username, tmbID).Error(0)
}

type mockTeamStore struct{ mock.Mock }

func (m *mockTeamStore) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	args := m.Called(ctx, teamID)
	if t, _ := args.Get(0).(*domain.Team); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTeamStore) GetMembershipByAccount(ctx context.Context, accountID string) (*domain.TeamMember, error) {
	args := m.Called(ctx, accountID)
	if tm, _ := args.Get(0).(*domain.TeamMember); tm != nil {
		return tm, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionIssuer struct{ mock.Mock }

func (m *mockSessionIssuer) Create(ctx context.Context, accountID, teamID, tmbID string, root bool, sourceIP string) (string, *domain.Session, error) {
	args := m.Called(ctx, accountID, teamID, tmbID, root, sourceIP)
	if s, _ := args.Get(1).(*domain.Session); s != nil {
		return args.String(0), s, args.Error(2)
	}
	return args.String(0), nil, args.Error(2)
}

// --- helpers ---

func newService(cv *mockCodeVerifier, as *mockAccountStore, ts *mockTeamStore, si *mockSessionIssuer) Service {
	return NewService(ServiceDeps{
		Codes:    cv,
		Accounts: as,
		Teams:    ts,
		Sessions: si,
		Tracker:  track.NewSlogTracker(nil),
	})
}

func baseReq() domain.RegisterRequest {
	return domain.RegisterRequest{
		Username: "alice@example.com",
		Password: "secret-pass-1",
		Code:     "abc123",
	}
}

// --- Register tests ---

func TestRegister_MissingParams(t *testing.T) {
	cv := &mockCodeVerifier{}
	svc := newService(cv, &mockAccountStore{}, nil, nil)

	for _, req := range []domain.RegisterRequest{
		{Password: "secret-pass-1", Code: "abc123"},
		{Username: "alice", Code: "abc123"},
		{Username: "alice", Password: "secret-pass-1"},
	} {
		_, _, err := svc.Register(context.Background(), req, "1.2.3.4")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidParams))
	}
	// Validation rejects before the gate's guarded work touches any store.
	cv.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_InvalidCode_NoSideEffects(t *testing.T) {
	cv := &mockCodeVerifier{}
	cv.On("Verify", mock.Anything, domain.CodeTypeRegister, "alice@example.com", "abc123").
		Return(domain.ErrInvalidCode)
	as := &mockAccountStore{}

	svc := newService(cv, as, nil, nil)
	_, _, err := svc.Register(context.Background(), baseReq(), "1.2.3.4")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	as.AssertNotCalled(t, "CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cv.AssertExpectations(t)
}

func TestRegister_AccountExists_FastPath(t *testing.T) {
	cv := &mockCodeVerifier{}
	cv.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	as := &mockAccountStore{}
	as.On("GetByUsername", mock.Anything, "alice@example.com").Return(&domain.Account{}, nil)

	svc := newService(cv, as, nil, nil)
	_, _, err := svc.Register(context.Background(), baseReq(), "1.2.3.4")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAccountExists))
	as.AssertNotCalled(t, "CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_AccountExists_LostCommitRace(t *testing.T) {
	// The pre-check missed a concurrent registration; the transaction's
	// uniqueness condition catches it and the caller sees AccountExists,
	// not a generic transaction failure.
	cv := &mockCodeVerifier{}
	cv.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	as := &mockAccountStore{}
	as.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	as.On("CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrAccountExists)
	si := &mockSessionIssuer{}

	svc := newService(cv, as, nil, si)
	_, _, err := svc.Register(context.Background(), baseReq(), "1.2.3.4")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAccountExists))
	si.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_TransactionFailure_NoSession(t *testing.T) {
	cv := &mockCodeVerifier{}
	cv.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	as := &mockAccountStore{}
	as.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	as.On("CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrTransactionFailed)
	si := &mockSessionIssuer{}

	svc := newService(cv, as, nil, si)
	_, _, err := svc.Register(context.Background(), baseReq(), "1.2.3.4")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransactionFailed))
	si.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	as.AssertNotCalled(t, "UpdateLastActiveMembership", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_SessionFailure_AccountStaysCommitted(t *testing.T) {
	cv := &mockCodeVerifier{}
	cv.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	as := &mockAccountStore{}
	as.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound).Twice()
	as.On("CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	as.On("UpdateLastActiveMembership", mock.Anything, "alice@example.com", mock.Anything).Return(nil)
	si := &mockSessionIssuer{}
	si.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, false, "1.2.3.4").
		Return("", nil, domain.ErrSessionIssuance)

	svc := newService(cv, as, nil, si)
	_, _, err := svc.Register(context.Background(), baseReq(), "1.2.3.4")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSessionIssuance))
	// The transaction ran; only the session step failed.
	as.AssertCalled(t, "CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_HappyPath(t *testing.T) {
	cv := &mockCodeVerifier{}
	cv.On("Verify", mock.Anything, domain.CodeTypeRegister, "alice@example.com", "abc123").Return(nil)

	as := &mockAccountStore{}
	var created *domain.Account
	var createdTeam *domain.Team
	var createdMember *domain.TeamMember
	as.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound).Twice()
	as.On("CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Account)
			createdTeam = args.Get(2).(*domain.Team)
			createdMember = args.Get(3).(*domain.TeamMember)
		}).Return(nil)
	as.On("UpdateLastActiveMembership", mock.Anything, "alice@example.com", mock.Anything).Return(nil)

	si := &mockSessionIssuer{}
	si.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, false, "1.2.3.4").
		Return("session-token", &domain.Session{SessionID: "s1"}, nil)

	svc := newService(cv, as, nil, si)
	detail, token, err := svc.Register(context.Background(), baseReq(), "1.2.3.4")

	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
	require.NotNil(t, detail)
	require.NotNil(t, created)

	assert.Equal(t, domain.StatusActive, created.Status)
	assert.NotEqual(t, "secret-pass-1", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret-pass-1")))

	assert.Equal(t, created.AccountID, createdTeam.OwnerAccountID)
	assert.Equal(t, createdTeam.TeamID, createdMember.TeamID)
	assert.Equal(t, created.AccountID, createdMember.AccountID)
	assert.Equal(t, domain.TeamRoleOwner, createdMember.Role)

	si.AssertCalled(t, "Create", mock.Anything, created.AccountID, createdTeam.TeamID, createdMember.TmbID, false, "1.2.3.4")
	as.AssertExpectations(t)
	cv.AssertExpectations(t)
}

func TestRegister_DetailReadBackFailure_DegradesGracefully(t *testing.T) {
	cv := &mockCodeVerifier{}
	cv.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	as := &mockAccountStore{}
	// Pre-check misses, then the post-commit read-back also fails.
	as.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	as.On("CreateWithDefaultTeam", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	as.On("UpdateLastActiveMembership", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	si := &mockSessionIssuer{}
	si.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, false, "").
		Return("tok", &domain.Session{}, nil)

	svc := newService(cv, as, nil, si)
	detail, token, err := svc.Register(context.Background(), baseReq(), "")

	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	require.NotNil(t, detail.Account)
	assert.Equal(t, "alice@example.com", detail.Account.Username)
}

// --- Detail tests ---

func TestDetail_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	ts := &mockTeamStore{}
	as.On("GetByID", mock.Anything, "a1").Return(&domain.Account{AccountID: "a1"}, nil)
	ts.On("GetMembershipByAccount", mock.Anything, "a1").
		Return(&domain.TeamMember{TmbID: "m1", TeamID: "t1", AccountID: "a1"}, nil)
	ts.On("Get", mock.Anything, "t1").Return(&domain.Team{TeamID: "t1"}, nil)

	svc := newService(nil, as, ts, nil)
	detail, err := svc.Detail(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, "a1", detail.Account.AccountID)
	assert.Equal(t, "t1", detail.Team.TeamID)
	assert.Equal(t, "m1", detail.Membership.TmbID)
}

func TestDetail_UnknownAccount(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByID", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := newService(nil, as, &mockTeamStore{}, nil)
	_, err := svc.Detail(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
