// Package coordinator schedules synchronization passes.
//
// The coordinator is either stopped or running a single loop. Each loop
// iteration reads the time of the last successful pass from the state service
// and sleeps until the interval has elapsed since then, so a restarted process
// does not re-run a pass that completed recently. A failed pass is retried
// after a fixed backoff without touching the last completion time.
//
// RunOnce triggers a pass immediately. Passes are mutually exclusive: the loop
// and RunOnce share a weighted semaphore of size one around the whole
// fetch, parse and reconcile sequence. A pass that has started always
// completes, even when Stop is called while it runs; cancellation is observed
// only while the loop is waiting.
//
// Time is read through an injected k8s.io/utils/clock so tests can drive the
// loop with a fake clock.
package coordinator
