// Package sloghooks reports menusync.Hooks events through log/slog, with
// sampling for the noisy ones and redaction of cache keys.
package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	menusync "github.com/unkn0wn-root/menusync"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SkipEvery  uint64
	RetryEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	skipCtr  atomic.Uint64
	retryCtr atomic.Uint64
}

var _ menusync.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) InvalidationFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("menusync.invalidation_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) EntitySkipped(kind, id, reason string) {
	if h.l == nil || !sample(h.opts.SkipEvery, &h.skipCtr) {
		return
	}
	h.l.Info("menusync.entity_skipped",
		"kind", kind,
		"id", id,
		"reason", reason)
}

func (h *Hooks) DiscountRejected(dishPath, raw string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("menusync.discount_rejected",
		"dish", dishPath,
		"raw", raw,
		"err", err)
}

func (h *Hooks) DeferredRetry(attempt int, err error) {
	if h.l == nil || !sample(h.opts.RetryEvery, &h.retryCtr) {
		return
	}
	h.l.Debug("menusync.deferred_retry",
		"attempt", attempt,
		"err", err)
}

func (h *Hooks) PassCompleted(s menusync.PassStats) {
	if h.l == nil {
		return
	}
	level := slog.LevelInfo
	if s.Failed > 0 {
		level = slog.LevelWarn
	}
	h.l.Log(context.Background(), level, "menusync.pass_completed",
		"created", s.Created,
		"updated", s.Updated,
		"deleted", s.Deleted,
		"discounts_set", s.DiscountsSet,
		"skipped", s.Skipped,
		"failed", s.Failed)
}
