package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/go-auth-nosql/internal/pkg/id"
	pkgtoken "github.com/go-auth-nosql/internal/pkg/token"
)

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	SoftDeleteByAccount(ctx context.Context, accountID string) error
}

type tokenSigner interface {
	Sign(accountID, teamID, tmbID, sessionID string, root bool) (string, error)
}

type Service interface {
	// Create persists a session row and returns the signed token for it.
	Create(ctx context.Context, accountID, teamID, tmbID string, root bool, sourceIP string) (string, *domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// Logout disables every session belonging to the account. Tokens signed
	// against those sessions stop resolving to a live session.
	Logout(ctx context.Context, accountID string) error
}

type service struct {
	repo          sessionStore
	signer        tokenSigner
	refreshExpiry time.Duration
}

func NewService(repo sessionStore, signer tokenSigner, refreshExpiry time.Duration) Service {
	return &service{repo: repo, signer: signer, refreshExpiry: refreshExpiry}
}

func (s *service) Create(ctx context.Context, accountID, teamID, tmbID string, root bool, sourceIP string) (string, *domain.Session, error) {
	if s.signer == nil {
		return "", nil, fmt.Errorf("no token signer configured: %w", domain.ErrSessionIssuance)
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrSessionIssuance, err)
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		AccountID:        accountID,
		TeamID:           teamID,
		TmbID:            tmbID,
		Root:             root,
		SourceIP:         sourceIP,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshExpiry).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Put(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrSessionIssuance, err)
	}
	token, err := s.signer.Sign(accountID, teamID, tmbID, sess.SessionID, root)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrSessionIssuance, err)
	}
	return token, sess, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.repo.Get(ctx, sessionID)
}

func (s *service) Logout(ctx context.Context, accountID string) error {
	return s.repo.SoftDeleteByAccount(ctx, accountID)
}
