package session

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"sentinel-service/internal/domain/account"
	sessiondom "sentinel-service/internal/domain/session"
	xerrors "sentinel-service/internal/pkg/errors"
	"sentinel-service/internal/pkg/events"
	"sentinel-service/internal/pkg/fingerprint"
	"sentinel-service/internal/pkg/token"
	"sentinel-service/internal/service/geo"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ----- in-memory collaborators -----

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*sessiondom.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*sessiondom.Session)}
}

func (m *memStore) seed(s *sessiondom.Session) *sessiondom.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = ulid.Make().String()
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return s
}

func (m *memStore) get(id string) *sessiondom.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memStore) Create(_ context.Context, s *sessiondom.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sessions {
		if existing.RefreshRef == s.RefreshRef {
			return xerrors.ErrConflict
		}
	}

	s.ID = ulid.Make().String()
	now := time.Now()
	s.CreatedAt = now
	s.LastActiveAt = now

	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) FindByRefreshRef(_ context.Context, ref string) (*sessiondom.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.RefreshRef == ref {
			cp := *s
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *memStore) FindByID(_ context.Context, id string) (*sessiondom.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, xerrors.ErrNotFound
}

func (m *memStore) FindActiveByAccount(_ context.Context, accountID int64, excludeID string) ([]*sessiondom.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	out := []*sessiondom.Session{}
	for _, s := range m.sessions {
		if s.AccountID != accountID || s.ID == excludeID || !s.IsActive(now) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.After(out[j].LastActiveAt) })
	return out, nil
}

func (m *memStore) Touch(_ context.Context, id string, dev *sessiondom.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || !s.IsActive(time.Now()) {
		return xerrors.ErrNotFound
	}

	s.LastActiveAt = time.Now()
	if dev != nil {
		merge := func(dst *sql.NullString, v string) {
			if v != "" {
				*dst = sql.NullString{String: v, Valid: true}
			}
		}
		if dev.Class != "" {
			s.DeviceClass = dev.Class
		}
		merge(&s.BrowserName, dev.BrowserName)
		merge(&s.BrowserVersion, dev.BrowserVersion)
		merge(&s.OSName, dev.OSName)
		merge(&s.OSVersion, dev.OSVersion)
		merge(&s.IPAddress, dev.IPAddress)
		merge(&s.Location, dev.Location)
		merge(&s.Region, dev.Region)
	}
	return nil
}

func (m *memStore) Revoke(_ context.Context, id, actor string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.Revoked {
		return false, nil
	}

	s.Revoked = true
	s.RevokedAt = sql.NullTime{Time: time.Now(), Valid: true}
	s.RevokedBy = sql.NullString{String: actor, Valid: true}
	return true, nil
}

func (m *memStore) RevokeAllForAccount(_ context.Context, accountID int64, excludeID, actor string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var count int64
	for _, s := range m.sessions {
		if s.AccountID != accountID || s.ID == excludeID || !s.IsActive(now) {
			continue
		}
		s.Revoked = true
		s.RevokedAt = sql.NullTime{Time: now, Valid: true}
		s.RevokedBy = sql.NullString{String: actor, Valid: true}
		count++
	}
	return count, nil
}

func (m *memStore) PurgeExpiredOrRevoked(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var count int64
	for id, s := range m.sessions {
		if s.Revoked || !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

func (m *memStore) Stats(_ context.Context, accountID int64) (*sessiondom.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	stats := &sessiondom.Stats{}
	devices := map[string]bool{}
	locations := map[string]bool{}
	for _, s := range m.sessions {
		if s.AccountID != accountID {
			continue
		}
		stats.Total++
		switch {
		case s.Revoked:
			stats.Revoked++
		case !now.Before(s.ExpiresAt):
			stats.Expired++
		default:
			stats.Active++
		}
		devices[s.Descriptor().Fingerprint()] = true
		if s.Location.Valid {
			locations[s.Location.String] = true
		}
	}
	stats.UniqueDevices = len(devices)
	stats.UniqueLocations = len(locations)
	return stats, nil
}

func (m *memStore) FindRecentByAccount(_ context.Context, accountID int64, since time.Time) ([]*sessiondom.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*sessiondom.Session{}
	for _, s := range m.sessions {
		if s.AccountID != accountID {
			continue
		}
		if s.CreatedAt.Before(since) && s.LastActiveAt.Before(since) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.After(out[j].LastActiveAt) })
	return out, nil
}

// racingStore makes a caller lose the create race exactly once: the first
// lookup misses, the create conflicts, the re-read sees the winner.
type racingStore struct {
	*memStore
	missed bool
}

func (r *racingStore) FindByRefreshRef(ctx context.Context, ref string) (*sessiondom.Session, error) {
	if !r.missed {
		r.missed = true
		return nil, xerrors.ErrNotFound
	}
	return r.memStore.FindByRefreshRef(ctx, ref)
}

type memDirectory struct {
	mu         sync.Mutex
	accounts   map[int64]*account.Account
	lastLogins map[int64]int
}

func newMemDirectory(accounts ...*account.Account) *memDirectory {
	d := &memDirectory{
		accounts:   make(map[int64]*account.Account),
		lastLogins: make(map[int64]int),
	}
	for _, a := range accounts {
		d.accounts[a.ID] = a
	}
	return d
}

func (d *memDirectory) FindByID(_ context.Context, id int64) (*account.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a, ok := d.accounts[id]; ok {
		return a, nil
	}
	return nil, xerrors.ErrNotFound
}

func (d *memDirectory) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range d.accounts {
		if a.Email.Valid && a.Email.String == email {
			return a, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (d *memDirectory) UpdateLastLogin(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastLogins[id]++
	return nil
}

type captureSink struct {
	mu     sync.Mutex
	events []*events.Event
}

func (c *captureSink) Emit(_ context.Context, ev *events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) byType(t events.Type) []*events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*events.Event
	for _, ev := range c.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// mapResolver resolves addresses from a fixed table; unlisted addresses fail,
// which simulates an unreachable geolocation collaborator.
type mapResolver struct {
	mu    sync.Mutex
	table map[string]*geo.Location
}

func (r *mapResolver) Resolve(_ context.Context, ip string) (*geo.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.table[ip]; ok {
		return loc, nil
	}
	return nil, xerrors.ErrStoreUnavailable
}

// ----- fixture -----

const (
	ipNairobi = "203.0.113.7"
	ipOakland = "198.51.100.99"
	uaChrome  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type fixture struct {
	svc   *Service
	store *memStore
	dir   *memDirectory
	sink  *captureSink
	codec *token.Codec
}

func newFixture(t *testing.T, opts ...func(*fixture) sessiondom.Store) *fixture {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		Issuer:        "sentinel",
		Audience:      "sentinel-api",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		store: newMemStore(),
		dir: newMemDirectory(&account.Account{
			ID:            42,
			Email:         sql.NullString{String: "user@example.com", Valid: true},
			EmailVerified: true,
			Status:        "active",
		}),
		sink:  &captureSink{},
		codec: codec,
	}

	var store sessiondom.Store = f.store
	for _, opt := range opts {
		store = opt(f)
	}

	resolver := &mapResolver{table: map[string]*geo.Location{
		ipNairobi: {City: "Nairobi", Country: "Kenya", RegionCode: "KE-30"},
		ipOakland: {City: "Oakland", Region: "California", Country: "United States", RegionCode: "US-CA"},
	}}
	extractor := fingerprint.NewExtractor(resolver, zap.NewNop())

	f.svc = NewService(store, f.dir, codec, extractor, f.sink, zap.NewNop(), Config{
		SessionTTL:   30 * 24 * time.Hour,
		StoreTimeout: 2 * time.Second,
	})
	return f
}

func withRacingStore() func(*fixture) sessiondom.Store {
	return func(f *fixture) sessiondom.Store {
		return &racingStore{memStore: f.store}
	}
}

func (f *fixture) issueRefresh(t *testing.T, accountID int64) string {
	t.Helper()
	raw, _, err := f.codec.IssueRefresh(accountID, "user@example.com")
	require.NoError(t, err)
	return raw
}

func mkSession(accountID int64, region string, created, lastActive time.Time, revoked bool) *sessiondom.Session {
	return &sessiondom.Session{
		ID:           ulid.Make().String(),
		AccountID:    accountID,
		RefreshRef:   ulid.Make().String(),
		DeviceClass:  sessiondom.DeviceDesktop,
		Region:       sql.NullString{String: region, Valid: region != ""},
		Location:     sql.NullString{String: region, Valid: region != ""},
		CreatedAt:    created,
		LastActiveAt: lastActive,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		Revoked:      revoked,
	}
}

// ----- tests -----

func TestRefreshAndRotate_CreatesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.issueRefresh(t, 42)

	resp, err := f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{
		RealIP: ipNairobi, UserAgent: uaChrome,
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)
	require.NotEmpty(t, resp.SessionID)
	require.Positive(t, resp.ExpiresIn)

	claims, err := f.codec.VerifyAccess(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.AccountID)
	require.Equal(t, "user@example.com", claims.Email)
	require.True(t, claims.Verified)

	require.Equal(t, 1, f.store.count())
	sess := f.store.get(resp.SessionID)
	require.NotNil(t, sess)
	require.Equal(t, raw, sess.RefreshRef)
	require.Equal(t, int64(42), sess.AccountID)
	require.Equal(t, sessiondom.DeviceDesktop, sess.DeviceClass)
	require.Equal(t, "Chrome", sess.BrowserName.String)
	require.Equal(t, "KE-30", sess.Region.String)
	require.True(t, sess.ExpiresAt.After(time.Now()))

	require.Len(t, f.sink.byType(events.TypeSessionCreated), 1)
	require.Equal(t, 1, f.dir.lastLogins[42])
}

func TestRefreshAndRotate_ReusesExistingSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.issueRefresh(t, 42)
	meta := fingerprint.RequestMeta{RealIP: ipNairobi, UserAgent: uaChrome}

	first, err := f.svc.RefreshAndRotate(ctx, raw, meta)
	require.NoError(t, err)

	second, err := f.svc.RefreshAndRotate(ctx, raw, meta)
	require.NoError(t, err)

	require.Equal(t, first.SessionID, second.SessionID)
	require.Equal(t, 1, f.store.count())

	sess := f.store.get(first.SessionID)
	require.False(t, sess.LastActiveAt.Before(sess.CreatedAt))

	// Only the first refresh created anything.
	require.Len(t, f.sink.byType(events.TypeSessionCreated), 1)
	require.Equal(t, 2, f.dir.lastLogins[42])
}

func TestRefreshAndRotate_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("empty credential", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.RefreshAndRotate(ctx, "", fingerprint.RequestMeta{})
		require.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})

	t.Run("garbage credential", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.RefreshAndRotate(ctx, "not-a-jwt", fingerprint.RequestMeta{})
		require.ErrorIs(t, err, xerrors.ErrInvalidCredential)
	})

	t.Run("access credential in the refresh slot", func(t *testing.T) {
		f := newFixture(t)
		raw, _, err := f.codec.IssueAccess(42, "user@example.com", true)
		require.NoError(t, err)

		_, err = f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{})
		require.ErrorIs(t, err, xerrors.ErrInvalidCredential)
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newFixture(t)
		raw := f.issueRefresh(t, 9999)
		_, err := f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{})
		require.ErrorIs(t, err, xerrors.ErrInvalidCredential)
	})

	t.Run("revoked session blocks its credential", func(t *testing.T) {
		f := newFixture(t)
		raw := f.issueRefresh(t, 42)
		meta := fingerprint.RequestMeta{RealIP: ipNairobi, UserAgent: uaChrome}

		resp, err := f.svc.RefreshAndRotate(ctx, raw, meta)
		require.NoError(t, err)

		changed, err := f.store.Revoke(ctx, resp.SessionID, sessiondom.RevokedByUser)
		require.NoError(t, err)
		require.True(t, changed)

		_, err = f.svc.RefreshAndRotate(ctx, raw, meta)
		require.ErrorIs(t, err, xerrors.ErrInvalidCredential)
	})

	t.Run("expired session blocks its credential", func(t *testing.T) {
		f := newFixture(t)
		raw := f.issueRefresh(t, 42)
		f.store.seed(&sessiondom.Session{
			AccountID:    42,
			RefreshRef:   raw,
			DeviceClass:  sessiondom.DeviceDesktop,
			CreatedAt:    time.Now().Add(-48 * time.Hour),
			LastActiveAt: time.Now().Add(-48 * time.Hour),
			ExpiresAt:    time.Now().Add(-time.Hour),
		})

		_, err := f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{})
		require.ErrorIs(t, err, xerrors.ErrInvalidCredential)
	})
}

func TestRefreshAndRotate_LosesCreateRace(t *testing.T) {
	f := newFixture(t, withRacingStore())
	ctx := context.Background()
	raw := f.issueRefresh(t, 42)

	winner := f.store.seed(&sessiondom.Session{
		AccountID:    42,
		RefreshRef:   raw,
		DeviceClass:  sessiondom.DeviceDesktop,
		CreatedAt:    time.Now(),
		LastActiveAt: time.Now(),
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	})

	resp, err := f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{
		RealIP: ipNairobi, UserAgent: uaChrome,
	})
	require.NoError(t, err)

	// The loser adopted the winner's row; exactly one session exists.
	require.Equal(t, winner.ID, resp.SessionID)
	require.Equal(t, 1, f.store.count())
	require.Empty(t, f.sink.byType(events.TypeSessionCreated))
}

func TestRefreshAndRotate_GeoFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.issueRefresh(t, 42)

	// Address missing from the resolver table: lookup fails.
	resp, err := f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{
		RealIP: "192.0.2.55", UserAgent: uaChrome,
	})
	require.NoError(t, err)

	sess := f.store.get(resp.SessionID)
	require.Equal(t, "192.0.2.55", sess.IPAddress.String)
	require.Equal(t, "Unknown", sess.Location.String)
	require.Equal(t, "XX", sess.Region.String)
}

func TestRefreshAndRotate_FlagsRegionChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := f.issueRefresh(t, 42)

	first, err := f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{
		RealIP: ipNairobi, UserAgent: uaChrome,
	})
	require.NoError(t, err)

	// Same credential, different region: flagged, never blocked.
	second, err := f.svc.RefreshAndRotate(ctx, raw, fingerprint.RequestMeta{
		RealIP: ipOakland, UserAgent: uaChrome,
	})
	require.NoError(t, err)
	require.Equal(t, first.SessionID, second.SessionID)

	suspicious := f.sink.byType(events.TypeSuspiciousLocation)
	require.Len(t, suspicious, 1)
	require.Equal(t, "KE-30", suspicious[0].Data["previous_region"])
	require.Equal(t, "US-CA", suspicious[0].Data["current_region"])

	sess := f.store.get(first.SessionID)
	require.Equal(t, "US-CA", sess.Region.String)
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	older := f.store.seed(mkSession(42, "KE-30", now.Add(-2*time.Hour), now.Add(-2*time.Hour), false))
	newer := f.store.seed(mkSession(42, "KE-30", now.Add(-time.Hour), now.Add(-time.Minute), false))
	f.store.seed(mkSession(42, "KE-30", now.Add(-time.Hour), now.Add(-time.Hour), true))
	f.store.seed(mkSession(7, "KE-30", now, now, false))

	infos, err := f.svc.ListSessions(ctx, 42, newer.ID)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	require.Equal(t, newer.ID, infos[0].ID)
	require.True(t, infos[0].IsCurrent)
	require.Equal(t, older.ID, infos[1].ID)
	require.False(t, infos[1].IsCurrent)
}

func TestGetSessionStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.store.seed(mkSession(42, "KE-30", now.Add(-time.Hour), now, false))
	f.store.seed(mkSession(42, "US-CA", now.Add(-time.Hour), now, false))
	f.store.seed(mkSession(42, "KE-30", now.Add(-time.Hour), now, true))

	expired := mkSession(42, "KE-30", now.Add(-48*time.Hour), now.Add(-48*time.Hour), false)
	expired.ExpiresAt = now.Add(-time.Hour)
	f.store.seed(expired)

	f.store.seed(mkSession(7, "KE-30", now, now, false))

	stats, err := f.svc.GetSessionStats(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 2, stats.Active)
	require.Equal(t, 1, stats.Revoked)
	require.Equal(t, 1, stats.Expired)
	require.Equal(t, 2, stats.UniqueLocations)
}

func TestRevokeSession(t *testing.T) {
	ctx := context.Background()

	t.Run("revoke then repeat is idempotent", func(t *testing.T) {
		f := newFixture(t)
		sess := f.store.seed(mkSession(42, "KE-30", time.Now(), time.Now(), false))

		resp, err := f.svc.RevokeSession(ctx, 42, sess.ID)
		require.NoError(t, err)
		require.True(t, resp.Revoked)
		require.True(t, f.store.get(sess.ID).Revoked)
		require.Equal(t, sessiondom.RevokedByUser, f.store.get(sess.ID).RevokedBy.String)
		require.Len(t, f.sink.byType(events.TypeSessionRevoked), 1)

		resp, err = f.svc.RevokeSession(ctx, 42, sess.ID)
		require.NoError(t, err)
		require.False(t, resp.Revoked)
		require.Len(t, f.sink.byType(events.TypeSessionRevoked), 1)
	})

	t.Run("missing session", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.RevokeSession(ctx, 42, "no-such-id")
		require.ErrorIs(t, err, xerrors.ErrNotFound)
	})

	t.Run("foreign session is indistinguishable from missing", func(t *testing.T) {
		f := newFixture(t)
		other := f.store.seed(mkSession(7, "KE-30", time.Now(), time.Now(), false))

		_, err := f.svc.RevokeSession(ctx, 42, other.ID)
		require.ErrorIs(t, err, xerrors.ErrNotFound)
		require.False(t, f.store.get(other.ID).Revoked)
	})
}

func TestRevokeAllSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	current := f.store.seed(mkSession(42, "KE-30", now, now, false))
	f.store.seed(mkSession(42, "KE-30", now, now, false))
	f.store.seed(mkSession(42, "US-CA", now, now, false))
	foreign := f.store.seed(mkSession(7, "KE-30", now, now, false))

	resp, err := f.svc.RevokeAllSessions(ctx, 42, current.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.RevokedCount)

	require.False(t, f.store.get(current.ID).Revoked)
	require.False(t, f.store.get(foreign.ID).Revoked)
	require.Len(t, f.sink.byType(events.TypeSessionsRevokedAll), 1)

	// Nothing left to revoke: count zero, no further event.
	resp, err = f.svc.RevokeAllSessions(ctx, 42, current.ID)
	require.NoError(t, err)
	require.Zero(t, resp.RevokedCount)
	require.Len(t, f.sink.byType(events.TypeSessionsRevokedAll), 1)
}

func TestFindSuspiciousSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive window", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.FindSuspiciousSessions(ctx, 42, 0)
		require.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})

	t.Run("flags sessions off the baseline region", func(t *testing.T) {
		f := newFixture(t)
		now := time.Now()

		// Baseline: the account's region before the window opened.
		f.store.seed(mkSession(42, "KE-30", now.Add(-72*time.Hour), now.Add(-48*time.Hour), false))

		offBaseline := f.store.seed(mkSession(42, "US-CA", now.Add(-time.Hour), now.Add(-time.Hour), false))
		f.store.seed(mkSession(42, "KE-30", now.Add(-2*time.Hour), now.Add(-2*time.Hour), false))

		infos, err := f.svc.FindSuspiciousSessions(ctx, 42, 24)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		require.Equal(t, offBaseline.ID, infos[0].ID)
	})

	t.Run("no baseline means no verdict", func(t *testing.T) {
		f := newFixture(t)
		now := time.Now()

		// Every session sits inside the window; nothing to compare against.
		f.store.seed(mkSession(42, "US-CA", now.Add(-time.Hour), now.Add(-time.Hour), false))
		f.store.seed(mkSession(42, "KE-30", now.Add(-2*time.Hour), now.Add(-2*time.Hour), false))

		infos, err := f.svc.FindSuspiciousSessions(ctx, 42, 24)
		require.NoError(t, err)
		require.Empty(t, infos)
	})
}

func TestCleanupExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	live := f.store.seed(mkSession(42, "KE-30", now, now, false))
	f.store.seed(mkSession(42, "KE-30", now, now, true))

	expired := mkSession(42, "KE-30", now.Add(-48*time.Hour), now.Add(-48*time.Hour), false)
	expired.ExpiresAt = now.Add(-time.Hour)
	f.store.seed(expired)

	resp, err := f.svc.CleanupExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.DeletedCount)

	require.NotNil(t, f.store.get(live.ID))
	require.Equal(t, 1, f.store.count())
}
