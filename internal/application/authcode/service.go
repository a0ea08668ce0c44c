package authcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-auth-nosql/internal/domain"
)

// Code shapes per type. Captcha codes are short and unambiguous because a
// human retypes them from an image; the rest are the usual six characters.
const (
	captchaAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	captchaLength   = 4

	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

type codeStore interface {
	Put(ctx context.Context, v *domain.AuthCode) error
	Consume(ctx context.Context, identifier string, codeType domain.CodeType, code string, now time.Time) error
}

type Service interface {
	// Issue generates and stores a fresh code for (codeType, identifier),
	// invalidating any outstanding code for the same pair, and returns it to
	// the boundary that will render or deliver it.
	Issue(ctx context.Context, codeType domain.CodeType, identifier string) (string, error)
	// Verify consumes the code. Any failure — wrong, expired, already used,
	// never issued — is domain.ErrInvalidCode with no further detail.
	Verify(ctx context.Context, codeType domain.CodeType, identifier, code string) error
}

type service struct {
	store      codeStore
	captchaTTL time.Duration
	codeTTL    time.Duration
}

func NewService(store codeStore, captchaTTL, codeTTL time.Duration) Service {
	return &service{store: store, captchaTTL: captchaTTL, codeTTL: codeTTL}
}

func (s *service) Issue(ctx context.Context, codeType domain.CodeType, identifier string) (string, error) {
	if !codeType.Valid() || identifier == "" {
		return "", fmt.Errorf("code type and identifier required: %w", domain.ErrInvalidParams)
	}
	alphabet, length, ttl := codeAlphabet, codeLength, s.codeTTL
	if codeType == domain.CodeTypeCaptcha {
		alphabet, length, ttl = captchaAlphabet, captchaLength, s.captchaTTL
	}
	code, err := randomCode(alphabet, length)
	if err != nil {
		return "", err
	}
	v := &domain.AuthCode{
		Identifier: identifier,
		Type:       string(codeType),
		Code:       code,
		ExpiresAt:  time.Now().Add(ttl).Unix(),
	}
	if err := s.store.Put(ctx, v); err != nil {
		return "", err
	}
	return code, nil
}

func (s *service) Verify(ctx context.Context, codeType domain.CodeType, identifier, code string) error {
	if !codeType.Valid() || identifier == "" || code == "" {
		return domain.ErrInvalidCode
	}
	if err := s.store.Consume(ctx, identifier, codeType, code, time.Now()); err != nil {
		// Store errors collapse into the uniform outcome too; keep the cause
		// in the logs for operators.
		if err != domain.ErrInvalidCode {
			slog.Warn("auth code consume failed", "type", codeType, "err", err)
		}
		return domain.ErrInvalidCode
	}
	return nil
}

func randomCode(alphabet string, n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
