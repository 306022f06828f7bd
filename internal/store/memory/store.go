// Package memory provides an in-process store used for tests and for running
// the sync server without a database.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/store"
)

// Store keeps institutions and programs in maps guarded by a single lock
type Store struct {
	mu           sync.RWMutex
	institutions map[string]*registry.Institution
	programs     map[string]*registry.Program
	now          func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		institutions: make(map[string]*registry.Institution),
		programs:     make(map[string]*registry.Program),
		now:          time.Now,
	}
}

func cloneInstitution(inst *registry.Institution) *registry.Institution {
	c := *inst
	if inst.HeadEduOrgID != nil {
		head := *inst.HeadEduOrgID
		c.HeadEduOrgID = &head
	}
	return &c
}

func cloneProgram(prog *registry.Program) *registry.Program {
	c := *prog
	return &c
}

// AddInstitution implements store.Store
func (s *Store) AddInstitution(_ context.Context, inst *registry.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.institutions[inst.ID]; ok {
		return registry.ErrAlreadyExists
	}
	c := cloneInstitution(inst)
	c.Normalize()
	c.UpdatedAt = s.now()
	s.institutions[inst.ID] = c
	return nil
}

// UpdateInstitution implements store.Store
func (s *Store) UpdateInstitution(_ context.Context, inst *registry.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.institutions[inst.ID]; !ok {
		return registry.ErrNotFound
	}
	c := cloneInstitution(inst)
	c.Normalize()
	c.UpdatedAt = s.now()
	s.institutions[inst.ID] = c
	return nil
}

// GetInstitution implements store.Store
func (s *Store) GetInstitution(_ context.Context, id string) (*registry.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.institutions[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return cloneInstitution(inst), nil
}

// ListInstitutionIDs implements store.Store
func (s *Store) ListInstitutionIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.institutions))
	for id := range s.institutions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// DeleteInstitution implements store.Store
func (s *Store) DeleteInstitution(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.institutions[id]; !ok {
		return registry.ErrNotFound
	}
	s.deleteInstitutionLocked(id)
	return nil
}

func (s *Store) deleteInstitutionLocked(id string) {
	delete(s.institutions, id)
	for pid, prog := range s.programs {
		if prog.InstitutionID == id {
			delete(s.programs, pid)
		}
	}
	now := s.now()
	for _, branch := range s.institutions {
		if branch.HeadEduOrgID != nil && *branch.HeadEduOrgID == id {
			branch.HeadEduOrgID = nil
			branch.UpdatedAt = now
		}
	}
}

// SoftDeleteInstitution implements store.Store
func (s *Store) SoftDeleteInstitution(
	_ context.Context, id string, origin registry.DeletionOrigin, cascade bool,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.institutions[id]
	if !ok {
		return registry.ErrNotFound
	}
	now := s.now()
	markInstitution(inst, origin, now)
	if !cascade {
		return nil
	}

	owners := map[string]struct{}{id: {}}
	for _, branch := range s.institutions {
		if branch.HeadEduOrgID != nil && *branch.HeadEduOrgID == id {
			markInstitution(branch, origin, now)
			owners[branch.ID] = struct{}{}
		}
	}
	for _, prog := range s.programs {
		if _, ok := owners[prog.InstitutionID]; ok {
			markProgram(prog, origin, now)
		}
	}
	return nil
}

func markInstitution(inst *registry.Institution, origin registry.DeletionOrigin, now time.Time) {
	inst.Deleted = true
	inst.DeletionOrigin = origin
	inst.UpdatedAt = now
}

func markProgram(prog *registry.Program, origin registry.DeletionOrigin, now time.Time) {
	prog.Deleted = true
	prog.DeletionOrigin = origin
	prog.UpdatedAt = now
}

// RestoreInstitution implements store.Store
func (s *Store) RestoreInstitution(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.institutions[id]
	if !ok {
		return registry.ErrNotFound
	}
	now := s.now()
	cascaded := inst.DeletionOrigin == registry.OriginAdmin
	unmarkInstitution(inst, now)
	if !cascaded {
		return nil
	}

	owners := map[string]struct{}{id: {}}
	for _, branch := range s.institutions {
		if branch.HeadEduOrgID != nil && *branch.HeadEduOrgID == id && branch.DeletionOrigin == registry.OriginAdmin {
			unmarkInstitution(branch, now)
			owners[branch.ID] = struct{}{}
		}
	}
	for _, prog := range s.programs {
		if _, ok := owners[prog.InstitutionID]; ok && prog.DeletionOrigin == registry.OriginAdmin {
			prog.Deleted = false
			prog.DeletionOrigin = registry.OriginNone
			prog.UpdatedAt = now
		}
	}
	return nil
}

func unmarkInstitution(inst *registry.Institution, now time.Time) {
	inst.Deleted = false
	inst.DeletionOrigin = registry.OriginNone
	inst.UpdatedAt = now
}

// HasCustomDependents implements store.Store
func (s *Store) HasCustomDependents(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, branch := range s.institutions {
		if branch.Custom && branch.HeadEduOrgID != nil && *branch.HeadEduOrgID == id {
			return true, nil
		}
	}
	for _, prog := range s.programs {
		if prog.Custom && prog.InstitutionID == id {
			return true, nil
		}
	}
	return false, nil
}

// AddProgram implements store.Store
func (s *Store) AddProgram(_ context.Context, prog *registry.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[prog.ID]; ok {
		return registry.ErrAlreadyExists
	}
	if _, ok := s.institutions[prog.InstitutionID]; !ok {
		return registry.ErrOrphanProgram
	}
	c := cloneProgram(prog)
	c.Normalize()
	c.UpdatedAt = s.now()
	s.programs[prog.ID] = c
	return nil
}

// UpdateProgram implements store.Store
func (s *Store) UpdateProgram(_ context.Context, prog *registry.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[prog.ID]; !ok {
		return registry.ErrNotFound
	}
	if _, ok := s.institutions[prog.InstitutionID]; !ok {
		return registry.ErrOrphanProgram
	}
	c := cloneProgram(prog)
	c.Normalize()
	c.UpdatedAt = s.now()
	s.programs[prog.ID] = c
	return nil
}

// GetProgram implements store.Store
func (s *Store) GetProgram(_ context.Context, id string) (*registry.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prog, ok := s.programs[id]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return cloneProgram(prog), nil
}

// ListProgramIDs implements store.Store
func (s *Store) ListProgramIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.programs))
	for id := range s.programs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// DeleteProgram implements store.Store
func (s *Store) DeleteProgram(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[id]; !ok {
		return registry.ErrNotFound
	}
	delete(s.programs, id)
	return nil
}

// SoftDeleteProgram implements store.Store
func (s *Store) SoftDeleteProgram(_ context.Context, id string, origin registry.DeletionOrigin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prog, ok := s.programs[id]
	if !ok {
		return registry.ErrNotFound
	}
	markProgram(prog, origin, s.now())
	return nil
}

// RestoreProgram implements store.Store
func (s *Store) RestoreProgram(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prog, ok := s.programs[id]
	if !ok {
		return registry.ErrNotFound
	}
	prog.Deleted = false
	prog.DeletionOrigin = registry.OriginNone
	prog.UpdatedAt = s.now()
	return nil
}

// Lookup implements store.Store
func (s *Store) Lookup(_ context.Context, lookup registry.Lookup) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	switch lookup {
	case registry.LookupRegions:
		for _, inst := range s.institutions {
			if !inst.Deleted && inst.RegionName != "" {
				seen[inst.RegionName] = struct{}{}
			}
		}
	case registry.LookupUGSCodes:
		for _, prog := range s.programs {
			if !prog.Deleted && prog.UGSCode != "" {
				seen[prog.UGSCode] = struct{}{}
			}
		}
	case registry.LookupProgramCodes:
		for _, prog := range s.programs {
			if !prog.Deleted && prog.ProgramCode != "" {
				seen[prog.ProgramCode] = struct{}{}
			}
		}
	default:
		return nil, registry.ErrNotFound
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	slices.Sort(values)
	return values, nil
}

// Stats implements store.Store
func (s *Store) Stats(_ context.Context) (*store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &store.Stats{}
	for _, inst := range s.institutions {
		if inst.Deleted {
			stats.DeletedInstitutions++
		} else {
			stats.Institutions++
		}
		if inst.Custom {
			stats.CustomInstitutions++
		}
	}
	for _, prog := range s.programs {
		if prog.Deleted {
			stats.DeletedPrograms++
		} else {
			stats.Programs++
		}
		if prog.Custom {
			stats.CustomPrograms++
		}
	}
	return stats, nil
}

// Ping implements store.Store
func (*Store) Ping(_ context.Context) error {
	return nil
}

// Close implements store.Store
func (*Store) Close() error {
	return nil
}
