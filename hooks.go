package menusync

// PassStats summarizes one reconciliation pass for hooks.
type PassStats struct {
	Created      int
	Updated      int
	Deleted      int
	DiscountsSet int
	Skipped      int
	Failed       int
}

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with hooks/async.
type Hooks interface {
	// A cache key or pattern could not be invalidated. Reads may be stale until TTL.
	InvalidationFailed(key string, err error)

	// A reconciliation step was skipped because its entity vanished mid-pass.
	// kind ∈ {"menu", "submenu", "dish"}
	EntitySkipped(kind, id, reason string)

	// A table discount could not be normalized; the stored overlay was left untouched.
	DiscountRejected(dishPath, raw string, err error)

	// A deferred invalidation failed and will be retried.
	DeferredRetry(attempt int, err error)

	// A reconciliation pass finished (with or without per-entity errors).
	PassCompleted(stats PassStats)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) InvalidationFailed(string, error)       {}
func (NopHooks) EntitySkipped(string, string, string)   {}
func (NopHooks) DiscountRejected(string, string, error) {}
func (NopHooks) DeferredRetry(int, error)               {}
func (NopHooks) PassCompleted(PassStats)                {}
