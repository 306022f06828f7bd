// Package sync runs one synchronization pass: fetch the registry snapshot,
// parse it and reconcile it into the store.
//
// # Core Interfaces
//
//   - Manager: performs a pass and reports a Result or a structured Error
//
// The sync/coordinator subpackage schedules passes and persists the time of
// the last successful one through sync/state. The sync/reconcile subpackage
// applies a parsed snapshot to the store.
//
// # Failure Reasons
//
// A failed pass carries one of the Reason* constants so the scheduler, the
// status record and the metrics can tell failures apart:
//
//   - ReasonHandlerCreationFailed, ReasonValidationFailed: the source is misconfigured
//   - ReasonFetchFailed: the snapshot could not be downloaded
//   - ReasonParseFailed: the snapshot document is malformed
//   - ReasonStorageFailed: the store rejected a write and the pass was aborted
package sync
