package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/dbx"
	"github.com/dmitrijs2005/bankauth/internal/logging"
	"github.com/dmitrijs2005/bankauth/internal/server/auth"
	"github.com/dmitrijs2005/bankauth/internal/server/events"
	"github.com/dmitrijs2005/bankauth/internal/server/metrics"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/bankauth/internal/server/services"

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
}

// AccessTokenIssuer signs access tokens; *auth.Forge implements it.
type AccessTokenIssuer interface {
	Issue(id auth.Identity) (string, time.Time, error)
}

// TokenService enforces the refresh token lifecycle: issuance with a per-user
// cap, single-use rotation, revocation and sweeping.
type TokenService struct {
	repomanager repomanager.RepositoryManager
	forge       AccessTokenIssuer
	maxActive   int
	log         logging.Logger
	metrics     *metrics.Metrics
	events      events.Publisher
	tracer      trace.Tracer
	now         func() time.Time
}

type TokenServiceOption func(*TokenService)

func WithLogger(l logging.Logger) TokenServiceOption {
	return func(s *TokenService) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) TokenServiceOption {
	return func(s *TokenService) { s.metrics = m }
}

func WithEvents(p events.Publisher) TokenServiceOption {
	return func(s *TokenService) { s.events = p }
}

func WithTracer(t trace.Tracer) TokenServiceOption {
	return func(s *TokenService) { s.tracer = t }
}

// WithClock sets the clock used to judge token expiry. It should match the
// clock of the repositories.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) { s.now = now }
}

// WithMaxActiveTokens overrides common.MaxActiveTokensPerUser.
func WithMaxActiveTokens(n int) TokenServiceOption {
	return func(s *TokenService) {
		if n > 0 {
			s.maxActive = n
		}
	}
}

func NewTokenService(m repomanager.RepositoryManager, forge AccessTokenIssuer, opts ...TokenServiceOption) *TokenService {
	s := &TokenService{
		repomanager: m,
		forge:       forge,
		maxActive:   common.MaxActiveTokensPerUser,
		log:         logging.Nop{},
		metrics:     metrics.New(nil),
		events:      events.Nop{},
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("module", "tokens")
	return s
}

// IssuePair creates a refresh token for userID, evicting the user's oldest
// active tokens so that at most maxActive remain, and signs an access token.
func (s *TokenService) IssuePair(ctx context.Context, userID string) (pair *TokenPair, err error) {
	ctx, span := s.tracer.Start(ctx, "TokenService.IssuePair", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	var (
		user    *models.User
		raw     string
		evicted int
	)

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.RefreshTokens(tx)

		if err := tokens.LockUser(ctx, userID); err != nil {
			return err
		}

		var err error
		user, err = s.repomanager.Users(tx).GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}

		active, err := tokens.FindActive(ctx, userID)
		if err != nil {
			return fmt.Errorf("error listing active tokens: %w", err)
		}

		if len(active) >= s.maxActive {
			for _, t := range active[s.maxActive-1:] {
				removed, err := tokens.Remove(ctx, t)
				if err != nil {
					return fmt.Errorf("error evicting refresh token: %w", err)
				}
				if removed {
					evicted++
				}
			}
		}

		raw, err = tokens.Insert(ctx, userID)
		if err != nil {
			return fmt.Errorf("error inserting refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	access, exp, err := s.forge.Issue(auth.Identity{UserID: user.ID, Email: user.Email, Name: user.DisplayName()})
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}

	s.metrics.TokensIssued.Inc()
	s.metrics.TokensEvicted.Add(float64(evicted))
	if evicted > 0 {
		s.log.Debug(ctx, "evicted refresh tokens over the cap", "user_id", userID, "evicted", evicted)
	}
	s.publish(ctx, events.Event{Type: events.TypeIssued, UserID: userID})

	return &TokenPair{AccessToken: access, AccessTokenExpiresAt: exp, RefreshToken: raw}, nil
}

// Rotate consumes raw and issues a new pair for its owner. Unknown, revoked,
// expired and already consumed tokens yield common.ErrInvalidToken. The
// consumed token is gone even if issuing the replacement fails; that failure
// wraps common.ErrSessionTerminated.
func (s *TokenService) Rotate(ctx context.Context, raw string) (pair *TokenPair, err error) {
	ctx, span := s.tracer.Start(ctx, "TokenService.Rotate")
	defer func() { endSpan(span, err) }()

	repo := s.repomanager.RefreshTokens(s.repomanager.DB())

	token, err := repo.FindByRawValue(ctx, raw)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.reject(ctx, "unknown refresh token")
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", token.UserID))

	if !token.IsActive(s.now()) {
		return nil, s.reject(ctx, "inactive refresh token", "user_id", token.UserID)
	}

	removed, err := repo.Remove(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("error deleting refresh token: %w", err)
	}
	if !removed {
		return nil, s.reject(ctx, "refresh token consumed concurrently", "user_id", token.UserID)
	}

	pair, err = s.IssuePair(ctx, token.UserID)
	if err != nil {
		s.log.Error(ctx, "refresh token consumed but reissue failed", "user_id", token.UserID, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrSessionTerminated, err)
	}

	s.metrics.TokensRotated.Inc()
	s.publish(ctx, events.Event{Type: events.TypeRotated, UserID: token.UserID})

	return pair, nil
}

// Revoke deletes the record behind raw. It reports false when there was
// nothing to revoke.
func (s *TokenService) Revoke(ctx context.Context, raw string) (revoked bool, err error) {
	ctx, span := s.tracer.Start(ctx, "TokenService.Revoke")
	defer func() { endSpan(span, err) }()

	repo := s.repomanager.RefreshTokens(s.repomanager.DB())

	token, err := repo.FindByRawValue(ctx, raw)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error searching refresh token: %w", err)
	}

	removed, err := repo.Remove(ctx, token)
	if err != nil {
		return false, fmt.Errorf("error deleting refresh token: %w", err)
	}

	if removed {
		s.metrics.TokensRevoked.Inc()
		s.publish(ctx, events.Event{Type: events.TypeRevoked, UserID: token.UserID, Count: 1})
	}
	return removed, nil
}

// RevokeAll deletes every refresh token of userID.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) (n int64, err error) {
	ctx, span := s.tracer.Start(ctx, "TokenService.RevokeAll", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	n, err = s.repomanager.RefreshTokens(s.repomanager.DB()).RemoveAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error deleting refresh tokens: %w", err)
	}

	s.metrics.TokensRevoked.Add(float64(n))
	s.log.Info(ctx, "revoked all refresh tokens", "user_id", userID, "removed", n)
	if n > 0 {
		s.publish(ctx, events.Event{Type: events.TypeRevoked, UserID: userID, Count: n})
	}
	return n, nil
}

// Sweep removes expired and revoked tokens and returns how many went away.
func (s *TokenService) Sweep(ctx context.Context) (n int64, err error) {
	ctx, span := s.tracer.Start(ctx, "TokenService.Sweep")
	defer func() { endSpan(span, err) }()

	n, err = s.repomanager.RefreshTokens(s.repomanager.DB()).RemoveExpiredOrRevoked(ctx)
	if err != nil {
		s.metrics.SweepFailures.Inc()
		return 0, fmt.Errorf("error sweeping refresh tokens: %w", err)
	}

	span.SetAttributes(attribute.Int64("tokens.removed", n))
	s.metrics.TokensSwept.Add(float64(n))
	s.log.Info(ctx, "swept refresh tokens", "removed", n)
	if n > 0 {
		s.publish(ctx, events.Event{Type: events.TypeSwept, Count: n})
	}
	return n, nil
}

func (s *TokenService) reject(ctx context.Context, reason string, args ...any) error {
	s.metrics.RotationsRejected.Inc()
	s.log.Warn(ctx, reason, args...)
	return common.ErrInvalidToken
}

func (s *TokenService) publish(ctx context.Context, ev events.Event) {
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn(ctx, "error publishing token event", "type", ev.Type, "error", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
