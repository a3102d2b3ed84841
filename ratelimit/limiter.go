package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/keylock"
	"github.com/loomworks/authcore/logger"
	"github.com/loomworks/authcore/store"
)

// Window is the persisted sliding-window state for one identifier.
// Timestamps are unix milliseconds, oldest first.
type Window struct {
	Timestamps   []int64 `json:"timestamps"`
	BlockedUntil int64   `json:"blocked_until,omitempty"`
}

// Violation records one rejected request for later inspection.
type Violation struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Count      int       `json:"count"`
	Limit      int       `json:"limit"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	CreatedAt  time.Time `json:"created_at"`
}

func (v Violation) Field(name string) (any, bool) {
	switch name {
	case "id":
		return v.ID, true
	case "identifier":
		return v.Identifier, true
	case "ip":
		return v.IP, true
	case "created_at":
		return v.CreatedAt, true
	default:
		return nil, false
	}
}

// RequestInfo carries the request attributes recorded with a violation and
// used to feed IP reputation.
type RequestInfo struct {
	IP        string
	UserAgent string
	Path      string
	Method    string
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Message    string
}

// Err converts a denial into the error returned to callers. Returns nil
// for an allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return errors.RateLimitExceeded(d.Message, int(d.RetryAfter/time.Second))
}

// Limiter enforces sliding-window limits per identifier. The check runs
// under a per-identifier lock so concurrent requests for the same
// identifier cannot both read a pre-update count and both be admitted.
type Limiter struct {
	cfg        Config
	windows    store.KV[Window]
	violations store.Collection[Violation]
	reputation *Reputation
	locks      *keylock.Striped
	log        *logger.Logger
	now        func() time.Time
}

// NewLimiter creates a Limiter. violations and reputation are optional;
// pass nil to skip violation records or reputation feedback.
func NewLimiter(cfg Config, windows store.KV[Window], violations store.Collection[Violation], reputation *Reputation, log *logger.Logger) *Limiter {
	cfg.ApplyDefaults()
	return &Limiter{
		cfg:        cfg,
		windows:    windows,
		violations: violations,
		reputation: reputation,
		locks:      keylock.New(keylock.DefaultStripes),
		log:        log.WithComponent("ratelimit"),
		now:        time.Now,
	}
}

// WithClock overrides the limiter's time source. Intended for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check applies the class limit to the identifier. A store failure is
// resolved by the configured failure policy: open admits the request,
// closed returns StoreUnavailable.
func (l *Limiter) Check(ctx context.Context, identifier string, class ClassConfig, req RequestInfo) (Decision, error) {
	l.locks.Lock(identifier)
	defer l.locks.Unlock(identifier)

	now := l.now()
	nowMs := now.UnixMilli()

	rec, err := l.windows.Load(ctx, identifier)
	if err != nil {
		return l.storeFailure("load", identifier, err)
	}
	if rec == nil {
		rec = &Window{}
	}

	if rec.BlockedUntil > nowMs {
		retry := time.Duration(rec.BlockedUntil-nowMs) * time.Millisecond
		return Decision{
			Allowed:    false,
			ResetAt:    time.UnixMilli(rec.BlockedUntil),
			RetryAfter: ceilSeconds(retry),
			Message:    class.Message,
		}, nil
	}

	cutoff := nowMs - class.Window.Milliseconds()
	kept := make([]int64, 0, len(rec.Timestamps))
	for _, ts := range rec.Timestamps {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	rec.Timestamps = kept

	if len(kept) >= class.MaxRequests {
		l.recordViolation(ctx, identifier, len(kept), class.MaxRequests, req)

		resetMs := kept[0] + class.Window.Milliseconds()
		if class.BlockDuration > 0 {
			rec.BlockedUntil = now.Add(class.BlockDuration).UnixMilli()
			resetMs = rec.BlockedUntil
			if err := l.windows.Save(ctx, identifier, rec, l.cfg.Retention); err != nil {
				l.log.WithError(err).Warn("failed to persist identifier block", map[string]interface{}{
					logger.FieldIdentifier: identifier,
				})
			}
		}
		retry := time.Duration(resetMs-nowMs) * time.Millisecond
		return Decision{
			Allowed:    false,
			ResetAt:    time.UnixMilli(resetMs),
			RetryAfter: ceilSeconds(retry),
			Message:    class.Message,
		}, nil
	}

	rec.Timestamps = append(rec.Timestamps, nowMs)
	if err := l.windows.Save(ctx, identifier, rec, l.cfg.Retention); err != nil {
		return l.storeFailure("save", identifier, err)
	}

	return Decision{
		Allowed:   true,
		Remaining: class.MaxRequests - len(rec.Timestamps),
		ResetAt:   time.UnixMilli(rec.Timestamps[0] + class.Window.Milliseconds()),
	}, nil
}

// Reset clears the window for an identifier.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	l.locks.Lock(identifier)
	defer l.locks.Unlock(identifier)
	return l.windows.Delete(ctx, identifier)
}

// Violations returns recorded violations for an identifier, newest last.
func (l *Limiter) Violations(ctx context.Context, identifier string) ([]Violation, error) {
	if l.violations == nil {
		return nil, nil
	}
	return l.violations.Find(ctx, store.Eq("identifier", identifier))
}

// Sweep deletes violation records older than the retention period. It is
// idempotent and safe to run while checks are in flight.
func (l *Limiter) Sweep(ctx context.Context) error {
	if l.violations == nil {
		return nil
	}
	cutoff := l.now().Add(-l.cfg.Retention)
	removed, err := l.violations.Delete(ctx, store.Lte("created_at", cutoff))
	if err != nil {
		return err
	}
	if removed > 0 {
		l.log.Info("purged stale rate-limit violations", map[string]interface{}{
			"removed": removed,
		})
	}
	return nil
}

func (l *Limiter) recordViolation(ctx context.Context, identifier string, count, limit int, req RequestInfo) {
	l.log.Warn("rate limit exceeded", map[string]interface{}{
		logger.FieldIdentifier: identifier,
		"count":                count,
		"limit":                limit,
		logger.FieldClientIP:   req.IP,
		"path":                 req.Path,
	})

	if l.violations != nil {
		v := Violation{
			ID:         uuid.NewString(),
			Identifier: identifier,
			Count:      count,
			Limit:      limit,
			IP:         req.IP,
			UserAgent:  req.UserAgent,
			Path:       req.Path,
			Method:     req.Method,
			CreatedAt:  l.now(),
		}
		if err := l.violations.Insert(ctx, v); err != nil {
			l.log.WithError(err).Warn("failed to record violation")
		}
	}

	if l.reputation != nil && IsClientScoped(identifier) && req.IP != "" {
		if err := l.reputation.MarkSuspicious(ctx, req.IP, "rate_limit_exceeded"); err != nil {
			l.log.WithError(err).Warn("failed to mark suspicious ip", map[string]interface{}{
				logger.FieldClientIP: req.IP,
			})
		}
	}
}

func (l *Limiter) storeFailure(op, identifier string, err error) (Decision, error) {
	fields := map[string]interface{}{
		logger.FieldOperation:  op,
		logger.FieldIdentifier: identifier,
		"policy":               l.cfg.FailurePolicy,
	}
	if l.cfg.FailurePolicy == PolicyClosed {
		l.log.WithError(err).Error("window store unavailable, rejecting", fields)
		return Decision{}, errors.StoreUnavailable(err)
	}
	l.log.WithError(err).Warn("window store unavailable, admitting", fields)
	return Decision{Allowed: true, Remaining: -1}, nil
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}
