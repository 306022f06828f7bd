package app

import (
	"github.com/stacklok/accreg-sync/internal/service"
	"github.com/stacklok/accreg-sync/internal/sync/coordinator"
	"github.com/stacklok/accreg-sync/internal/sync/state"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator schedules and runs sync passes
	SyncCoordinator coordinator.Coordinator

	// RegistryService provides the administrative operations and the deletion procedure
	RegistryService service.RegistryService

	// StateService holds the durable sync status
	StateService state.SyncStateService
}
