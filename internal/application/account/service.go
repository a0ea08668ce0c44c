package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/pkg/id"
	"github.com/go-auth-nosql/internal/pkg/track"
	"golang.org/x/crypto/bcrypt"
)

type codeVerifier interface {
	Verify(ctx context.Context, codeType domain.CodeType, identifier, code string) error
}

type accountStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)
	CreateWithDefaultTeam(ctx context.Context, a *domain.Account, t *domain.Team, m *domain.TeamMember) error
	UpdateLastActiveMembership(ctx context.Context, username, tmbID string) error
}

type teamStore interface {
	Get(ctx context.Context, teamID string) (*domain.Team, error)
	GetMembershipByAccount(ctx context.Context, accountID string) (*domain.TeamMember, error)
}

type sessionIssuer interface {
	Create(ctx context.Context, accountID, teamID, tmbID string, root bool, sourceIP string) (string, *domain.Session, error)
}

type Service interface {
	// Register runs the full provisioning sequence for a verified identifier:
	// consume the registration code, create account + default team + membership
	// atomically, then enrich and issue a session. On success the returned
	// token is already backed by a durable session row.
	Register(ctx context.Context, req domain.RegisterRequest, sourceIP string) (*domain.AccountDetail, string, error)
	// Detail returns the denormalized account view for an existing account.
	Detail(ctx context.Context, accountID string) (*domain.AccountDetail, error)
}

type service struct {
	codes    codeVerifier
	accounts accountStore
	teams    teamStore
	sessions sessionIssuer
	tracker  track.Tracker
}

type ServiceDeps struct {
	Codes    codeVerifier
	Accounts accountStore
	Teams    teamStore
	Sessions sessionIssuer
	Tracker  track.Tracker
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codes:    deps.Codes,
		accounts: deps.Accounts,
		teams:    deps.Teams,
		sessions: deps.Sessions,
		tracker:  deps.Tracker,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest, sourceIP string) (*domain.AccountDetail, string, error) {
	if req.Username == "" || req.Password == "" || req.Code == "" {
		return nil, "", fmt.Errorf("username, password and code required: %w", domain.ErrInvalidParams)
	}

	// Consuming the code is the point of no return for it: a failed
	// registration after this line needs a freshly issued code.
	if err := s.codes.Verify(ctx, domain.CodeTypeRegister, req.Username, req.Code); err != nil {
		return nil, "", err
	}

	// Fast path only. The transaction's condition on the username key is the
	// real uniqueness guarantee under concurrent registrations.
	if _, err := s.accounts.GetByUsername(ctx, req.Username); err == nil {
		return nil, "", fmt.Errorf("username taken: %w", domain.ErrAccountExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	acc := &domain.Account{
		AccountID:    id.New(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Status:       domain.StatusActive,
		InviterID:    req.InviterID,
		BdVid:        req.BdVid,
		Msclkid:      req.Msclkid,
		Sem:          req.Sem,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	team := &domain.Team{
		TeamID:         id.New(),
		Name:           fmt.Sprintf("%s's team", req.Username),
		OwnerAccountID: acc.AccountID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	member := &domain.TeamMember{
		TmbID:     id.New(),
		TeamID:    team.TeamID,
		AccountID: acc.AccountID,
		Role:      domain.TeamRoleOwner,
		Status:    domain.StatusActive,
		CreatedAt: now,
	}

	// All three items commit together or not at all.
	if err := s.accounts.CreateWithDefaultTeam(ctx, acc, team, member); err != nil {
		return nil, "", err
	}

	// Post-commit enrichment. Nothing from here on rolls the account back.
	detail := s.readBackDetail(ctx, acc, team, member)

	if err := s.accounts.UpdateLastActiveMembership(ctx, acc.Username, member.TmbID); err != nil {
		slog.Warn("failed to record last active membership", "account_id", acc.AccountID, "err", err)
	}

	token, _, err := s.sessions.Create(ctx, acc.AccountID, team.TeamID, member.TmbID, false, sourceIP)
	if err != nil {
		// The account is durable; the caller retries login, not registration.
		if !errors.Is(err, domain.ErrSessionIssuance) {
			err = fmt.Errorf("%w: %v", domain.ErrSessionIssuance, err)
		}
		return nil, "", err
	}

	if s.tracker != nil {
		e := track.Event{AccountID: acc.AccountID, TeamID: team.TeamID, TmbID: member.TmbID, SourceIP: sourceIP}
		s.tracker.Registered(ctx, e)
		s.tracker.Login(ctx, e)
	}
	return detail, token, nil
}

// readBackDetail re-reads the committed entities for the denormalized view.
// The transaction already guaranteed they exist; a failed read here degrades
// to the in-memory values rather than failing the request.
func (s *service) readBackDetail(ctx context.Context, acc *domain.Account, team *domain.Team, member *domain.TeamMember) *domain.AccountDetail {
	detail := &domain.AccountDetail{Account: acc, Team: team, Membership: member}
	fresh, err := s.accounts.GetByUsername(ctx, acc.Username)
	if err != nil {
		slog.Warn("account detail read-back failed", "account_id", acc.AccountID, "err", err)
		return detail
	}
	fresh.LastTmbID = member.TmbID
	detail.Account = fresh
	return detail
}

func (s *service) Detail(ctx context.Context, accountID string) (*domain.AccountDetail, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	member, err := s.teams.GetMembershipByAccount(ctx, acc.AccountID)
	if err != nil {
		return nil, err
	}
	team, err := s.teams.Get(ctx, member.TeamID)
	if err != nil {
		return nil, err
	}
	return &domain.AccountDetail{Account: acc, Team: team, Membership: member}, nil
}
