package ratelimit

import (
	"context"
	"time"

	"github.com/loomworks/authcore/errors"
	"github.com/loomworks/authcore/keylock"
	"github.com/loomworks/authcore/logger"
	"github.com/loomworks/authcore/store"
)

// maxReasonEntries bounds the per-IP reason log.
const maxReasonEntries = 20

// IPRecord is the persisted reputation state for one IP address.
type IPRecord struct {
	Score        int           `json:"score"`
	Reasons      []ReasonEntry `json:"reasons,omitempty"`
	BlockedUntil int64         `json:"blocked_until,omitempty"`
	BlockReason  string        `json:"block_reason,omitempty"`
}

// ReasonEntry is one suspicion event, At in unix milliseconds.
type ReasonEntry struct {
	Reason string `json:"reason"`
	At     int64  `json:"at"`
}

// Reputation accumulates suspicion scores per IP and blocks addresses
// that cross the configured threshold. Backed by a KV store so multiple
// instances sharing a Redis see each other's blocks.
type Reputation struct {
	cfg   Config
	store store.KV[IPRecord]
	locks *keylock.Striped
	log   *logger.Logger
	now   func() time.Time
}

// NewReputation creates a Reputation tracker.
func NewReputation(cfg Config, kv store.KV[IPRecord], log *logger.Logger) *Reputation {
	cfg.ApplyDefaults()
	return &Reputation{
		cfg:   cfg,
		store: kv,
		locks: keylock.New(keylock.DefaultStripes),
		log:   log.WithComponent("ip-reputation"),
		now:   time.Now,
	}
}

// WithClock overrides the tracker's time source. Intended for tests.
func (r *Reputation) WithClock(now func() time.Time) *Reputation {
	r.now = now
	return r
}

// MarkSuspicious increments the IP's suspicion score and records the
// reason. Crossing the threshold imposes an automatic block.
func (r *Reputation) MarkSuspicious(ctx context.Context, ip, reason string) error {
	r.locks.Lock(ip)
	defer r.locks.Unlock(ip)

	now := r.now()
	rec, err := r.store.Load(ctx, ip)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &IPRecord{}
	}

	rec.Score++
	rec.Reasons = append(rec.Reasons, ReasonEntry{Reason: reason, At: now.UnixMilli()})
	if len(rec.Reasons) > maxReasonEntries {
		rec.Reasons = rec.Reasons[len(rec.Reasons)-maxReasonEntries:]
	}

	if rec.Score >= r.cfg.SuspicionThreshold && rec.BlockedUntil <= now.UnixMilli() {
		rec.BlockedUntil = now.Add(r.cfg.AutoBlockDuration).UnixMilli()
		rec.BlockReason = "suspicion_threshold_exceeded"
		r.log.Warn("ip automatically blocked", map[string]interface{}{
			logger.FieldClientIP: ip,
			"score":              rec.Score,
			"blocked_until":      time.UnixMilli(rec.BlockedUntil).Format(time.RFC3339),
		})
	}

	return r.store.Save(ctx, ip, rec, r.cfg.Retention)
}

// BlockIP imposes a manual block for the given duration.
func (r *Reputation) BlockIP(ctx context.Context, ip string, d time.Duration, reason string) error {
	r.locks.Lock(ip)
	defer r.locks.Unlock(ip)

	rec, err := r.store.Load(ctx, ip)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &IPRecord{}
	}
	rec.BlockedUntil = r.now().Add(d).UnixMilli()
	rec.BlockReason = reason
	r.log.Info("ip manually blocked", map[string]interface{}{
		logger.FieldClientIP: ip,
		logger.FieldReason:   reason,
	})
	return r.store.Save(ctx, ip, rec, r.cfg.Retention)
}

// UnblockIP lifts any block and resets the suspicion score.
func (r *Reputation) UnblockIP(ctx context.Context, ip string) error {
	r.locks.Lock(ip)
	defer r.locks.Unlock(ip)

	rec, err := r.store.Load(ctx, ip)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	rec.Score = 0
	rec.BlockedUntil = 0
	rec.BlockReason = ""
	r.log.Info("ip unblocked", map[string]interface{}{logger.FieldClientIP: ip})
	return r.store.Save(ctx, ip, rec, r.cfg.Retention)
}

// IsBlocked reports whether the IP is currently blocked. An expired block
// is cleared lazily on the next check.
func (r *Reputation) IsBlocked(ctx context.Context, ip string) (bool, error) {
	r.locks.Lock(ip)
	defer r.locks.Unlock(ip)

	rec, err := r.store.Load(ctx, ip)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.BlockedUntil == 0 {
		return false, nil
	}

	nowMs := r.now().UnixMilli()
	if rec.BlockedUntil > nowMs {
		return true, nil
	}

	rec.BlockedUntil = 0
	rec.BlockReason = ""
	if err := r.store.Save(ctx, ip, rec, r.cfg.Retention); err != nil {
		r.log.WithError(err).Warn("failed to clear expired block", map[string]interface{}{
			logger.FieldClientIP: ip,
		})
	}
	return false, nil
}

// Guard enforces the block list as the error callers surface: IPBlocked
// when the IP is blocked, StoreUnavailable resolved by the failure policy
// when the store cannot answer.
func (r *Reputation) Guard(ctx context.Context, ip string) error {
	blocked, err := r.IsBlocked(ctx, ip)
	if err != nil {
		if r.cfg.FailurePolicy == PolicyClosed {
			return errors.StoreUnavailable(err)
		}
		r.log.WithError(err).Warn("reputation store unavailable, admitting", map[string]interface{}{
			logger.FieldClientIP: ip,
		})
		return nil
	}
	if blocked {
		return errors.IPBlocked()
	}
	return nil
}
