package session

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/keylock"
	"github.com/loomworks/authcore/logger"
	"github.com/loomworks/authcore/password"
	"github.com/loomworks/authcore/store"
)

const sessionIDBytes = 32

// Manager owns the session lifecycle. All per-user state transitions run
// under a per-user lock, so the count-and-evict sequence is atomic and
// the active-session cap holds under concurrent logins.
type Manager struct {
	cfg      Config
	sessions store.Collection[Session]
	logins   store.Collection[LoginRecord]
	locks    *keylock.Striped
	log      *logger.Logger
	now      func() time.Time
}

// NewManager creates a Manager. logins is optional; pass nil to disable
// login records and suspicious-activity detection.
func NewManager(cfg Config, sessions store.Collection[Session], logins store.Collection[LoginRecord], log *logger.Logger) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		cfg:      cfg,
		sessions: sessions,
		logins:   logins,
		locks:    keylock.New(keylock.DefaultStripes),
		log:      log.WithComponent("session"),
		now:      time.Now,
	}
}

// WithClock overrides the manager's time source. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create admits a login and returns its session. When the user is at the
// concurrency cap, an active session from the exact same device is
// extended and returned instead of a new one; otherwise the session with
// the oldest activity is kicked out to make room.
func (m *Manager) Create(ctx context.Context, userID string, client ClientInfo, accessTokenRef string) (*Session, error) {
	m.locks.Lock(userID)
	defer m.locks.Unlock(userID)

	now := m.now()
	if err := m.expireStale(ctx, userID, now); err != nil {
		return nil, m.storeErr(err)
	}

	active, err := m.activeSessions(ctx, userID)
	if err != nil {
		return nil, m.storeErr(err)
	}

	if len(active) >= m.cfg.MaxConcurrent {
		if reused := findSameDevice(active, client); reused != nil {
			extended, err := m.extend(ctx, reused.ID, now, true, accessTokenRef)
			if err != nil {
				return nil, m.storeErr(err)
			}
			m.log.Info("same-device re-login extended session", map[string]interface{}{
				logger.FieldUserID:    userID,
				logger.FieldSessionID: reused.ID,
			})
			return extended, nil
		}

		oldest := oldestByActivity(active)
		if err := m.kickOut(ctx, oldest.ID, now); err != nil {
			return nil, m.storeErr(err)
		}
		m.log.Warn("session evicted for concurrent limit", map[string]interface{}{
			logger.FieldUserID:    userID,
			logger.FieldSessionID: oldest.ID,
			"limit":               m.cfg.MaxConcurrent,
		})
	}

	id, err := password.GenerateToken(sessionIDBytes)
	if err != nil {
		return nil, errors.Internal(err)
	}
	sess := Session{
		ID:             id,
		UserID:         userID,
		Client:         client,
		AccessTokenRef: accessTokenRef,
		Status:         StatusActive,
		LoginCount:     1,
		CreatedAt:      now,
		LastActiveAt:   now,
		ExpiresAt:      now.Add(m.cfg.Timeout),
	}
	if err := m.sessions.Insert(ctx, sess); err != nil {
		return nil, m.storeErr(err)
	}

	m.log.Info("session created", map[string]interface{}{
		logger.FieldUserID:    userID,
		logger.FieldSessionID: id,
		logger.FieldClientIP:  client.IP,
	})
	return &sess, nil
}

// Validate checks that the session exists, belongs to the user, and has
// not timed out, then touches its activity and extends its expiry.
//
// Under the "open" failure policy a store error yields (nil, nil): the
// caller could not verify the session but is admitted by policy.
func (m *Manager) Validate(ctx context.Context, sessionID, userID string) (*Session, error) {
	m.locks.Lock(userID)
	defer m.locks.Unlock(userID)

	matches, err := m.sessions.Find(ctx, store.And(
		store.Eq("id", sessionID),
		store.Eq("user_id", userID),
		store.Eq("status", string(StatusActive)),
	))
	if err != nil {
		if m.cfg.FailurePolicy == PolicyOpen {
			m.log.WithError(err).Warn("session store unavailable, admitting unverified", map[string]interface{}{
				logger.FieldSessionID: sessionID,
			})
			return nil, nil
		}
		return nil, errors.StoreUnavailable(err)
	}
	if len(matches) == 0 {
		return nil, errors.SessionNotFound()
	}

	now := m.now()
	sess := matches[0]
	if sess.ExpiresAt.Before(now) {
		if _, err := m.sessions.Update(ctx, store.Eq("id", sess.ID), func(s Session) Session {
			if s.Status != StatusActive {
				return s
			}
			s.Status = StatusExpired
			s.TerminatedAt = now
			s.TerminationReason = ReasonExpired
			return s
		}); err != nil {
			return nil, m.storeErr(err)
		}
		return nil, errors.SessionExpired()
	}

	extended, err := m.extend(ctx, sess.ID, now, false, "")
	if err != nil {
		return nil, m.storeErr(err)
	}
	return extended, nil
}

// Terminate ends the named session, or every active session for the user
// when sessionID is empty. Returns how many sessions were terminated.
func (m *Manager) Terminate(ctx context.Context, sessionID, userID, reason string) (int, error) {
	m.locks.Lock(userID)
	defer m.locks.Unlock(userID)

	expr := store.And(
		store.Eq("user_id", userID),
		store.Eq("status", string(StatusActive)),
	)
	if sessionID != "" {
		expr = store.And(expr, store.Eq("id", sessionID))
	}

	now := m.now()
	n, err := m.sessions.Update(ctx, expr, func(s Session) Session {
		s.Status = StatusTerminated
		s.TerminatedAt = now
		s.TerminationReason = reason
		return s
	})
	if err != nil {
		return 0, m.storeErr(err)
	}
	if n > 0 {
		m.log.Info("sessions terminated", map[string]interface{}{
			logger.FieldUserID: userID,
			logger.FieldReason: reason,
			"count":            n,
		})
	}
	return n, nil
}

// RecordLogin stores a login attempt for suspicious-activity detection.
func (m *Manager) RecordLogin(ctx context.Context, userID string, client ClientInfo, success bool) error {
	if m.logins == nil {
		return nil
	}
	rec := LoginRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		Success:   success,
		CreatedAt: m.now(),
	}
	if err := m.logins.Insert(ctx, rec); err != nil {
		return m.storeErr(err)
	}
	return nil
}

// DetectSuspiciousActivity inspects login records inside the trailing
// window and reports the first matching signal.
func (m *Manager) DetectSuspiciousActivity(ctx context.Context, userID string) (SuspicionReport, error) {
	if m.logins == nil {
		return SuspicionReport{}, nil
	}

	since := m.now().Add(-m.cfg.SuspiciousWindow)
	records, err := m.logins.Find(ctx, store.And(
		store.Eq("user_id", userID),
		store.Gte("created_at", since),
	))
	if err != nil {
		return SuspicionReport{}, m.storeErr(err)
	}

	ips := make(map[string]struct{})
	agents := make(map[string]struct{})
	for _, r := range records {
		if r.IP != "" {
			ips[r.IP] = struct{}{}
		}
		if r.UserAgent != "" {
			agents[r.UserAgent] = struct{}{}
		}
	}

	report := SuspicionReport{
		LoginCount:     len(records),
		DistinctIPs:    len(ips),
		DistinctAgents: len(agents),
	}
	switch {
	case len(records) >= m.cfg.SuspiciousLoginThreshold:
		report.Suspicious = true
		report.Reason = ReasonHighFrequencyLogin
	case len(ips) > m.cfg.SuspiciousMaxIPs:
		report.Suspicious = true
		report.Reason = ReasonMultipleIPs
	case len(agents) > m.cfg.SuspiciousMaxAgents:
		report.Suspicious = true
		report.Reason = ReasonMultipleDevices
	}

	if report.Suspicious {
		m.log.Warn("suspicious login activity", map[string]interface{}{
			logger.FieldUserID: userID,
			logger.FieldReason: report.Reason,
			"login_count":      report.LoginCount,
			"distinct_ips":     report.DistinctIPs,
			"distinct_agents":  report.DistinctAgents,
		})
	}
	return report, nil
}

// ActiveSessions lists the user's active sessions.
func (m *Manager) ActiveSessions(ctx context.Context, userID string) ([]Session, error) {
	sessions, err := m.activeSessions(ctx, userID)
	if err != nil {
		return nil, m.storeErr(err)
	}
	return sessions, nil
}

// Sweep marks timed-out sessions expired and purges stale login records.
// It is idempotent and safe to run alongside live traffic.
func (m *Manager) Sweep(ctx context.Context) error {
	now := m.now()
	expired, err := m.sessions.Update(ctx, store.And(
		store.Eq("status", string(StatusActive)),
		store.Lte("expires_at", now),
	), func(s Session) Session {
		s.Status = StatusExpired
		s.TerminatedAt = now
		s.TerminationReason = ReasonExpired
		return s
	})
	if err != nil {
		return err
	}

	var purged int
	if m.logins != nil {
		cutoff := now.Add(-m.cfg.LoginRecordRetention)
		purged, err = m.logins.Delete(ctx, store.Lte("created_at", cutoff))
		if err != nil {
			return err
		}
	}

	if expired > 0 || purged > 0 {
		m.log.Info("session sweep completed", map[string]interface{}{
			"expired_sessions":     expired,
			"purged_login_records": purged,
		})
	}
	return nil
}

func (m *Manager) activeSessions(ctx context.Context, userID string) ([]Session, error) {
	return m.sessions.Find(ctx, store.And(
		store.Eq("user_id", userID),
		store.Eq("status", string(StatusActive)),
	))
}

// expireStale transitions the user's timed-out sessions before counting.
func (m *Manager) expireStale(ctx context.Context, userID string, now time.Time) error {
	_, err := m.sessions.Update(ctx, store.And(
		store.Eq("user_id", userID),
		store.Eq("status", string(StatusActive)),
		store.Lte("expires_at", now),
	), func(s Session) Session {
		s.Status = StatusExpired
		s.TerminatedAt = now
		s.TerminationReason = ReasonExpired
		return s
	})
	return err
}

func (m *Manager) extend(ctx context.Context, sessionID string, now time.Time, relogin bool, newTokenRef string) (*Session, error) {
	var updated Session
	n, err := m.sessions.Update(ctx, store.Eq("id", sessionID), func(s Session) Session {
		s.LastActiveAt = now
		s.ExpiresAt = now.Add(m.cfg.Timeout)
		if relogin {
			s.LoginCount++
			// A re-login mints a fresh token pair, so the session
			// must reference the new access token, not the
			// superseded one.
			if newTokenRef != "" {
				s.AccessTokenRef = newTokenRef
			}
		}
		updated = s
		return s
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.SessionNotFound()
	}
	return &updated, nil
}

func (m *Manager) kickOut(ctx context.Context, sessionID string, now time.Time) error {
	_, err := m.sessions.Update(ctx, store.Eq("id", sessionID), func(s Session) Session {
		if s.Status != StatusActive {
			return s
		}
		s.Status = StatusKickedOut
		s.TerminatedAt = now
		s.TerminationReason = ReasonConcurrentLimit
		return s
	})
	return err
}

func (m *Manager) storeErr(err error) error {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.StoreUnavailable(err)
}

func findSameDevice(sessions []Session, client ClientInfo) *Session {
	for i := range sessions {
		if sessions[i].Client.SameDevice(client) {
			return &sessions[i]
		}
	}
	return nil
}

func oldestByActivity(sessions []Session) Session {
	sorted := make([]Session, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastActiveAt.Before(sorted[j].LastActiveAt)
	})
	return sorted[0]
}
