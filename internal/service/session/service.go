// internal/service/session/service.go
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sentinel-service/internal/domain/account"
	sessiondom "sentinel-service/internal/domain/session"
	xerrors "sentinel-service/internal/pkg/errors"
	"sentinel-service/internal/pkg/events"
	"sentinel-service/internal/pkg/fingerprint"
	"sentinel-service/internal/pkg/token"

	"go.uber.org/zap"
)

// Config carries the lifecycle knobs loaded once at startup.
type Config struct {
	// SessionTTL is the absolute lifetime of a newly created session.
	SessionTTL time.Duration
	// StoreTimeout bounds every session-store call. Timed-out writes are not
	// retried here: a blind create retry risks duplicate-session ambiguity.
	StoreTimeout time.Duration
}

// Service orchestrates session creation, rotation, revocation and cleanup.
// It is the sole writer of session records.
type Service struct {
	store     sessiondom.Store
	accounts  account.Directory
	codec     *token.Codec
	extractor *fingerprint.Extractor
	sink      events.Sink
	logger    *zap.Logger
	cfg       Config
}

func NewService(
	store sessiondom.Store,
	accounts account.Directory,
	codec *token.Codec,
	extractor *fingerprint.Extractor,
	sink events.Sink,
	logger *zap.Logger,
	cfg Config,
) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}

	return &Service{
		store:     store,
		accounts:  accounts,
		codec:     codec,
		extractor: extractor,
		sink:      sink,
		logger:    logger,
		cfg:       cfg,
	}
}

// RefreshAndRotate verifies a refresh credential, reconciles its backing
// session (touch existing or create new), and issues a fresh access
// credential. The refresh credential itself is never reissued: sessions slide
// within the refresh credential's fixed lifetime.
//
// Every rejection collapses into xerrors.ErrInvalidCredential so the endpoint
// cannot be used to enumerate accounts or tokens.
func (s *Service) RefreshAndRotate(ctx context.Context, rawRefresh string, meta fingerprint.RequestMeta) (*sessiondom.RefreshResponse, error) {
	if rawRefresh == "" {
		return nil, xerrors.ErrInvalidInput
	}

	claims, err := s.codec.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil, xerrors.ErrInvalidCredential
	}

	acct, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		// A vanished account is indistinguishable from a bad token.
		return nil, xerrors.ErrInvalidCredential
	}

	dev := s.extractor.Extract(ctx, meta)

	sess, err := s.reconcileSession(ctx, acct.ID, rawRefresh, dev)
	if err != nil {
		return nil, err
	}

	email := ""
	if acct.Email.Valid {
		email = acct.Email.String
	}

	accessToken, expiresAt, err := s.codec.IssueAccess(acct.ID, email, acct.EmailVerified)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access credential: %w", err)
	}

	if err := s.accounts.UpdateLastLogin(ctx, acct.ID); err != nil {
		s.logger.Error("failed to update last login",
			zap.Int64("account_id", acct.ID), zap.Error(err))
	}

	return &sessiondom.RefreshResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		ExpiresAt:   expiresAt,
		SessionID:   sess.ID,
	}, nil
}

// reconcileSession finds the session backing the refresh reference, touching
// it, or creates it when none exists. Concurrent creates against the same
// reference are arbitrated by the store's unique index: the loser re-reads
// the winner's row.
func (s *Service) reconcileSession(ctx context.Context, accountID int64, refreshRef string, dev sessiondom.Device) (*sessiondom.Session, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	existing, err := s.store.FindByRefreshRef(sctx, refreshRef)
	switch {
	case err == nil:
		return s.touchExisting(sctx, existing, dev)

	case errors.Is(err, xerrors.ErrNotFound):
		return s.createSession(sctx, accountID, refreshRef, dev)

	default:
		return nil, xerrors.Wrap(err, "session lookup failed")
	}
}

func (s *Service) touchExisting(ctx context.Context, existing *sessiondom.Session, dev sessiondom.Device) (*sessiondom.Session, error) {
	if !existing.IsActive(time.Now()) {
		return nil, xerrors.ErrInvalidCredential
	}

	s.flagRegionChange(ctx, existing, dev)

	if err := s.store.Touch(ctx, existing.ID, &dev); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			// Lost a race with a revocation or the expiry boundary.
			return nil, xerrors.ErrInvalidCredential
		}
		return nil, xerrors.Wrap(err, "session touch failed")
	}

	return existing, nil
}

func (s *Service) createSession(ctx context.Context, accountID int64, refreshRef string, dev sessiondom.Device) (*sessiondom.Session, error) {
	sess := &sessiondom.Session{
		AccountID:  accountID,
		RefreshRef: refreshRef,
		ExpiresAt:  time.Now().Add(s.cfg.SessionTTL),
	}
	applyDevice(sess, dev)

	err := s.store.Create(ctx, sess)
	if errors.Is(err, xerrors.ErrConflict) {
		// A concurrent refresh with the same credential won the create; its
		// row is authoritative.
		winner, err := s.store.FindByRefreshRef(ctx, refreshRef)
		if err != nil {
			return nil, xerrors.Wrap(err, "failed to read winning session")
		}
		return winner, nil
	}
	if err != nil {
		return nil, xerrors.Wrap(err, "session create failed")
	}

	s.emit(events.New(events.TypeSessionCreated, accountID, sess.ID, map[string]interface{}{
		"device":   dev.Fingerprint(),
		"location": dev.Location,
	}))

	return sess, nil
}

// flagRegionChange emits a suspicious-location event when the resolved region
// differs from the session's stored region. Deliberately log-only: rotation
// is not blocked.
func (s *Service) flagRegionChange(_ context.Context, existing *sessiondom.Session, dev sessiondom.Device) {
	if !existing.Region.Valid || dev.Region == "" {
		return
	}
	if existing.Region.String == dev.Region {
		return
	}

	s.logger.Warn("suspicious location on refresh",
		zap.String("session_id", existing.ID),
		zap.Int64("account_id", existing.AccountID),
		zap.String("previous_region", existing.Region.String),
		zap.String("current_region", dev.Region),
	)

	s.emit(events.New(events.TypeSuspiciousLocation, existing.AccountID, existing.ID, map[string]interface{}{
		"previous_region": existing.Region.String,
		"current_region":  dev.Region,
		"location":        dev.Location,
	}))
}

// ListSessions returns the caller's active sessions, most recently active
// first, each annotated with whether it backs the current request.
func (s *Service) ListSessions(ctx context.Context, accountID int64, currentSessionID string) ([]sessiondom.Info, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	sessions, err := s.store.FindActiveByAccount(sctx, accountID, "")
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to list sessions")
	}

	infos := make([]sessiondom.Info, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sessiondom.Info{
			ID:           sess.ID,
			Device:       sess.Descriptor(),
			CreatedAt:    sess.CreatedAt,
			LastActiveAt: sess.LastActiveAt,
			ExpiresAt:    sess.ExpiresAt,
			IsCurrent:    currentSessionID != "" && sess.ID == currentSessionID,
		})
	}

	return infos, nil
}

// GetSessionStats aggregates the caller's session population.
func (s *Service) GetSessionStats(ctx context.Context, accountID int64) (*sessiondom.Stats, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	stats, err := s.store.Stats(sctx, accountID)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to aggregate session stats")
	}

	return stats, nil
}

// RevokeSession revokes one of the caller's sessions. A session belonging to
// another account reports xerrors.ErrNotFound, indistinguishable from a
// session that does not exist. Revoking an already-revoked session is not an
// error; the response reports that nothing changed.
func (s *Service) RevokeSession(ctx context.Context, accountID int64, sessionID string) (*sessiondom.RevokeResponse, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	sess, err := s.store.FindByID(sctx, sessionID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrNotFound
		}
		return nil, xerrors.Wrap(err, "session lookup failed")
	}

	// Ownership check precedes the store call; "not yours" must not leak the
	// session's existence.
	if sess.AccountID != accountID {
		return nil, xerrors.ErrNotFound
	}

	changed, err := s.store.Revoke(sctx, sessionID, sessiondom.RevokedByUser)
	if err != nil {
		return nil, xerrors.Wrap(err, "session revoke failed")
	}

	if changed {
		s.emit(events.New(events.TypeSessionRevoked, accountID, sessionID, map[string]interface{}{
			"revoked_by": sessiondom.RevokedByUser,
		}))
	}

	return &sessiondom.RevokeResponse{Revoked: changed}, nil
}

// RevokeAllSessions revokes every active session of the account except the
// one backing the current request (when given), attributed to the account
// holder.
func (s *Service) RevokeAllSessions(ctx context.Context, accountID int64, currentSessionID string) (*sessiondom.RevokeAllResponse, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	count, err := s.store.RevokeAllForAccount(sctx, accountID, currentSessionID, sessiondom.RevokedByUser)
	if err != nil {
		return nil, xerrors.Wrap(err, "bulk revoke failed")
	}

	if count > 0 {
		s.emit(events.New(events.TypeSessionsRevokedAll, accountID, currentSessionID, map[string]interface{}{
			"revoked_count": count,
		}))
	}

	return &sessiondom.RevokeAllResponse{RevokedCount: count}, nil
}

// FindSuspiciousSessions is a read-only diagnostic: sessions created or
// touched within the window whose region differs from the account's most
// recent region outside it. It never revokes anything.
func (s *Service) FindSuspiciousSessions(ctx context.Context, accountID int64, windowHours int) ([]sessiondom.Info, error) {
	if windowHours <= 0 {
		return nil, xerrors.ErrInvalidInput
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	// All of the account's sessions, most recent first; the window boundary
	// splits them into candidates and the baseline history.
	all, err := s.store.FindRecentByAccount(sctx, accountID, time.Time{})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to scan sessions")
	}

	windowStart := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	baseline := ""
	for _, sess := range all {
		if sess.LastActiveAt.Before(windowStart) && sess.Region.Valid {
			baseline = sess.Region.String
			break
		}
	}
	if baseline == "" {
		return []sessiondom.Info{}, nil
	}

	var suspicious []sessiondom.Info
	for _, sess := range all {
		inWindow := !sess.CreatedAt.Before(windowStart) || !sess.LastActiveAt.Before(windowStart)
		if !inWindow {
			continue
		}
		if sess.Region.Valid && sess.Region.String != baseline {
			suspicious = append(suspicious, sessiondom.Info{
				ID:           sess.ID,
				Device:       sess.Descriptor(),
				CreatedAt:    sess.CreatedAt,
				LastActiveAt: sess.LastActiveAt,
				ExpiresAt:    sess.ExpiresAt,
			})
		}
	}

	return suspicious, nil
}

// CleanupExpired hard-deletes sessions that are expired or revoked. Safe to
// run alongside live traffic: the predicate only matches terminal states.
func (s *Service) CleanupExpired(ctx context.Context) (*sessiondom.CleanupResponse, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	count, err := s.store.PurgeExpiredOrRevoked(sctx)
	if err != nil {
		return nil, xerrors.Wrap(err, "session purge failed")
	}

	return &sessiondom.CleanupResponse{DeletedCount: count}, nil
}

// ResolveSession loads a session by ID for best-effort context enrichment.
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*sessiondom.Session, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	return s.store.FindByID(sctx, sessionID)
}

// FindSessionByRefreshRef resolves the session backing a refresh reference.
func (s *Service) FindSessionByRefreshRef(ctx context.Context, ref string) (*sessiondom.Session, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	return s.store.FindByRefreshRef(sctx, ref)
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *Service) emit(ev *events.Event) {
	if s.sink == nil {
		return
	}
	// Fire-and-forget; the sink contract forbids blocking the primary flow.
	s.sink.Emit(context.Background(), ev)
}

func applyDevice(sess *sessiondom.Session, dev sessiondom.Device) {
	class := dev.Class
	if class == "" {
		class = sessiondom.DeviceDesktop
	}
	sess.DeviceClass = class
	sess.BrowserName = nullString(dev.BrowserName)
	sess.BrowserVersion = nullString(dev.BrowserVersion)
	sess.OSName = nullString(dev.OSName)
	sess.OSVersion = nullString(dev.OSVersion)
	sess.IPAddress = nullString(dev.IPAddress)
	sess.Location = nullString(dev.Location)
	sess.Region = nullString(dev.Region)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
