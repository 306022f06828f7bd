package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/accreg-sync/internal/config"
	"github.com/stacklok/accreg-sync/internal/registry"
	"github.com/stacklok/accreg-sync/internal/snapshot"
	snapshotmocks "github.com/stacklok/accreg-sync/internal/snapshot/mocks"
	"github.com/stacklok/accreg-sync/internal/sources"
	sourcemocks "github.com/stacklok/accreg-sync/internal/sources/mocks"
	pkgsync "github.com/stacklok/accreg-sync/internal/sync"
	"github.com/stacklok/accreg-sync/internal/sync/reconcile"
	reconcilemocks "github.com/stacklok/accreg-sync/internal/sync/reconcile/mocks"
)

type managerMocks struct {
	factory    *sourcemocks.MockSourceHandlerFactory
	handler    *sourcemocks.MockSourceHandler
	parser     *snapshotmocks.MockParser
	reconciler *reconcilemocks.MockReconciler
}

func TestPerformSync(t *testing.T) {
	t.Parallel()

	source := &config.SourceConfig{Type: config.SourceTypeFile, File: &config.FileConfig{Path: "/data/snapshot.xml"}}
	fetched := &sources.FetchResult{Path: "/data/snapshot.xml", Hash: "abc123", Size: 42, Origin: "/data/snapshot.xml"}
	snap := &snapshot.Snapshot{
		Institutions: []*registry.Institution{registry.NewTestInstitution("U1")},
		Stats:        snapshot.Stats{Certificates: 2, SkippedCertificates: 1},
	}
	reconciled := &reconcile.Result{KeptInstitutionIDs: []string{"U1"}}

	tests := []struct {
		name       string
		setup      func(m *managerMocks)
		wantReason string
	}{
		{
			name: "successful pass",
			setup: func(m *managerMocks) {
				m.factory.EXPECT().CreateHandler(config.SourceTypeFile).Return(m.handler, nil)
				m.handler.EXPECT().Validate(source).Return(nil)
				m.handler.EXPECT().Fetch(gomock.Any(), source).Return(fetched, nil)
				m.parser.EXPECT().Parse(gomock.Any(), fetched.Path).Return(snap, nil)
				m.reconciler.EXPECT().Reconcile(gomock.Any(), snap).Return(reconciled, nil)
			},
		},
		{
			name: "unknown source type",
			setup: func(m *managerMocks) {
				m.factory.EXPECT().CreateHandler(config.SourceTypeFile).Return(nil, assert.AnError)
			},
			wantReason: pkgsync.ReasonHandlerCreationFailed,
		},
		{
			name: "invalid source",
			setup: func(m *managerMocks) {
				m.factory.EXPECT().CreateHandler(config.SourceTypeFile).Return(m.handler, nil)
				m.handler.EXPECT().Validate(source).Return(assert.AnError)
			},
			wantReason: pkgsync.ReasonValidationFailed,
		},
		{
			name: "fetch fails",
			setup: func(m *managerMocks) {
				m.factory.EXPECT().CreateHandler(config.SourceTypeFile).Return(m.handler, nil)
				m.handler.EXPECT().Validate(source).Return(nil)
				m.handler.EXPECT().Fetch(gomock.Any(), source).Return(nil, assert.AnError)
			},
			wantReason: pkgsync.ReasonFetchFailed,
		},
		{
			name: "parse fails",
			setup: func(m *managerMocks) {
				m.factory.EXPECT().CreateHandler(config.SourceTypeFile).Return(m.handler, nil)
				m.handler.EXPECT().Validate(source).Return(nil)
				m.handler.EXPECT().Fetch(gomock.Any(), source).Return(fetched, nil)
				m.parser.EXPECT().Parse(gomock.Any(), fetched.Path).Return(nil, snapshot.ErrParse)
			},
			wantReason: pkgsync.ReasonParseFailed,
		},
		{
			name: "store fails",
			setup: func(m *managerMocks) {
				m.factory.EXPECT().CreateHandler(config.SourceTypeFile).Return(m.handler, nil)
				m.handler.EXPECT().Validate(source).Return(nil)
				m.handler.EXPECT().Fetch(gomock.Any(), source).Return(fetched, nil)
				m.parser.EXPECT().Parse(gomock.Any(), fetched.Path).Return(snap, nil)
				m.reconciler.EXPECT().Reconcile(gomock.Any(), snap).Return(nil, reconcile.ErrPersistence)
			},
			wantReason: pkgsync.ReasonStorageFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			m := &managerMocks{
				factory:    sourcemocks.NewMockSourceHandlerFactory(ctrl),
				handler:    sourcemocks.NewMockSourceHandler(ctrl),
				parser:     snapshotmocks.NewMockParser(ctrl),
				reconciler: reconcilemocks.NewMockReconciler(ctrl),
			}
			tt.setup(m)

			mgr := pkgsync.NewDefaultSyncManager(source, m.factory, m.parser, m.reconciler)
			res, syncErr := mgr.PerformSync(context.Background())

			if tt.wantReason != "" {
				require.NotNil(t, syncErr)
				assert.Nil(t, res)
				assert.Equal(t, tt.wantReason, syncErr.Reason)
				assert.NotEmpty(t, syncErr.Error())
				assert.NotNil(t, syncErr.Unwrap())
				return
			}
			require.Nil(t, syncErr)
			assert.Equal(t, "abc123", res.Hash)
			assert.Equal(t, fetched.Origin, res.Origin)
			assert.Equal(t, 1, res.ParseStats.SkippedCertificates)
			assert.Same(t, reconciled, res.Reconcile)
		})
	}
}

func TestError_WrapsCause(t *testing.T) {
	t.Parallel()

	err := &pkgsync.Error{Err: reconcile.ErrPersistence, Message: "Storage failed", Reason: pkgsync.ReasonStorageFailed}
	assert.ErrorIs(t, err, reconcile.ErrPersistence)
	assert.Equal(t, "Storage failed", err.Error())
}
