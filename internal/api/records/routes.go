// Package records serves the administrative endpoints over stored institutions
// and programs: custom record maintenance, deletes, restores and lookup lists.
package records

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/accreg-sync/internal/api/common"
	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/service"
)

// DeleteResponse reports what an administrative delete did
type DeleteResponse struct {
	ID      string          `json:"id"`
	Outcome service.Outcome `json:"outcome"`
}

// LookupResponse is a lookup list
type LookupResponse struct {
	Name   registry.Lookup `json:"name"`
	Values []string        `json:"values"`
}

// kindRoutes binds the generic handlers to one record type
type kindRoutes[T any] struct {
	svc    service.RegistryService
	kind   registry.Kind
	get    func(ctx context.Context, id string) (*T, error)
	create func(ctx context.Context, rec *T) (*T, error)
	update func(ctx context.Context, rec *T) (*T, error)
	setID  func(rec *T, id string)
}

// InstitutionRouter serves /institutions
func InstitutionRouter(svc service.RegistryService) http.Handler {
	return (&kindRoutes[registry.Institution]{
		svc:    svc,
		kind:   registry.KindInstitution,
		get:    svc.GetInstitution,
		create: svc.CreateInstitution,
		update: svc.UpdateInstitution,
		setID:  func(inst *registry.Institution, id string) { inst.ID = id },
	}).router()
}

// ProgramRouter serves /programs
func ProgramRouter(svc service.RegistryService) http.Handler {
	return (&kindRoutes[registry.Program]{
		svc:    svc,
		kind:   registry.KindProgram,
		get:    svc.GetProgram,
		create: svc.CreateProgram,
		update: svc.UpdateProgram,
		setID:  func(prog *registry.Program, id string) { prog.ID = id },
	}).router()
}

func (k *kindRoutes[T]) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/", k.handleCreate)
	r.Get("/{id}", k.handleGet)
	r.Put("/{id}", k.handleUpdate)
	r.Delete("/{id}", k.handleDelete)
	r.Post("/{id}/restore", k.handleRestore)
	return r
}

func (k *kindRoutes[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec T
	if err := common.DecodeJSONBody(r, &rec, false); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := k.create(r.Context(), &rec)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, created, http.StatusCreated)
}

func (k *kindRoutes[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := k.get(r.Context(), id)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, rec, http.StatusOK)
}

// handleUpdate replaces a custom record; the id in the path wins over the body
func (k *kindRoutes[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var rec T
	if err := common.DecodeJSONBody(r, &rec, false); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	k.setID(&rec, id)

	updated, err := k.update(r.Context(), &rec)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, updated, http.StatusOK)
}

func (k *kindRoutes[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	outcome, err := k.svc.Delete(r.Context(), k.kind, id, false)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, DeleteResponse{ID: id, Outcome: outcome}, http.StatusOK)
}

func (k *kindRoutes[T]) handleRestore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := k.svc.Restore(r.Context(), k.kind, id); err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	rec, err := k.get(r.Context(), id)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, rec, http.StatusOK)
}

// LookupRouter serves /lookups
func LookupRouter(svc service.RegistryService) http.Handler {
	r := chi.NewRouter()
	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		name, ok := registry.ParseLookup(chi.URLParam(r, "name"))
		if !ok {
			common.WriteErrorResponse(w, "unknown lookup "+chi.URLParam(r, "name"), http.StatusNotFound)
			return
		}

		values, err := svc.Lookup(r.Context(), name)
		if err != nil {
			common.WriteServiceError(w, r, err)
			return
		}
		if values == nil {
			values = []string{}
		}
		common.WriteJSONResponse(w, LookupResponse{Name: name, Values: values}, http.StatusOK)
	})
	return r
}

// StatsHandler serves the stored row counts
func StatsHandler(svc service.RegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			common.WriteServiceError(w, r, err)
			return
		}
		common.WriteJSONResponse(w, stats, http.StatusOK)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return id, true
}
