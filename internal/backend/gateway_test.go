package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"haoshi-console/internal/backend"
	"haoshi-console/internal/models"
	"haoshi-console/internal/store"
)

// fakeRemote answers from canned values, or fails with err when set.
type fakeRemote struct {
	mu       sync.Mutex
	err      error
	snap     store.Snapshot
	response *backend.MutationResponse
	requests []backend.MutationRequest
	urls     []string
}

func (f *fakeRemote) FetchAll(context.Context) (store.Snapshot, error) {
	if f.err != nil {
		return store.Snapshot{}, f.err
	}
	return f.snap, nil
}

func (f *fakeRemote) Mutate(_ context.Context, _ models.Entity, req backend.MutationRequest) (*backend.MutationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.response != nil {
		return f.response, nil
	}
	return &backend.MutationResponse{Status: "success"}, nil
}

func (f *fakeRemote) UploadPhotos(context.Context, string, string, []backend.PhotoFile) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.urls, nil
}

type memAuditor struct {
	entries []models.AuditEntry
}

func (m *memAuditor) SaveAudit(_ context.Context, e *models.AuditEntry) error {
	m.entries = append(m.entries, *e)
	return nil
}

var fixedNow = time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC)

func newGateway(remote backend.Remote, opts ...backend.Option) (*backend.Gateway, *store.Store) {
	st := store.New()
	opts = append([]backend.Option{backend.WithClock(func() time.Time { return fixedNow })}, opts...)
	return backend.NewGateway(remote, backend.NewLocalFallback(), st, zap.NewNop(), opts...), st
}

func down() error {
	return fmt.Errorf("%w: dial tcp: connection refused", backend.ErrUnavailable)
}

func TestRefresh_FallsBackToDemoData(t *testing.T) {
	gw, st := newGateway(&fakeRemote{err: down()})

	res, err := gw.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, res.Simulated)
	require.Len(t, st.Properties(), 3)
	require.Len(t, st.Communities(), 3)
	require.Len(t, st.Users(), 3)
	require.Equal(t, 3, res.Summary.New)
}

func TestRefresh_KeepsCollectionsMissingFromResponse(t *testing.T) {
	remote := &fakeRemote{err: down()}
	gw, st := newGateway(remote)
	_, err := gw.Refresh(context.Background())
	require.NoError(t, err)

	props := []models.Property{{ID: "p1", Status: "一般"}}
	remote.err = nil
	remote.snap = store.Snapshot{Properties: &props}

	res, err := gw.Refresh(context.Background())
	require.NoError(t, err)
	require.False(t, res.Simulated)
	require.Len(t, st.Properties(), 1)
	require.Len(t, st.Communities(), 3)
	require.Equal(t, 1, res.Summary.New)
	require.Equal(t, 3, res.Summary.Removed)
}

type memChangeLog struct {
	changes []models.PropertyChange
}

func (m *memChangeLog) SaveChanges(_ context.Context, c []models.PropertyChange) error {
	m.changes = append(m.changes, c...)
	return nil
}

func TestRefresh_StoresChangesAfterFirstLoad(t *testing.T) {
	log := &memChangeLog{}
	remote := &fakeRemote{err: down()}
	gw, _ := newGateway(remote, backend.WithChangeLog(log))

	_, err := gw.Refresh(context.Background())
	require.NoError(t, err)
	require.Empty(t, log.changes)

	props := []models.Property{{ID: "p1", Status: "一般"}}
	remote.err = nil
	remote.snap = store.Snapshot{Properties: &props}
	_, err = gw.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, log.changes, 4)
	require.Equal(t, fixedNow, log.changes[0].DetectedAt)
}

func TestRefresh_WithoutFallbackReturnsError(t *testing.T) {
	gw, _ := newGateway(&fakeRemote{err: down()}, backend.WithFallback(false))
	_, err := gw.Refresh(context.Background())
	require.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestCreate_FallbackSynthesizesRecord(t *testing.T) {
	audit := &memAuditor{}
	gw, st := newGateway(&fakeRemote{err: down()}, backend.WithAuditor(audit))

	res, err := gw.Create(context.Background(), models.EntityProperty, map[string]any{
		"community_name": "威均天翔",
		"total_price":    1200,
	}, "錦宣")
	require.NoError(t, err)
	require.True(t, res.Simulated)
	require.True(t, strings.HasPrefix(res.ID, "demo-"))

	p, err := st.Property(res.ID)
	require.NoError(t, err)
	require.Equal(t, "2026-01-07", p.CreatedAtSource)
	require.Equal(t, "錦宣", p.Agent)
	require.Equal(t, 1200.0, p.TotalPrice.Float())

	require.Len(t, audit.entries, 1)
	require.True(t, audit.entries[0].Simulated)
	require.Equal(t, models.ActionCreate, audit.entries[0].Action)
}

func TestCreate_FallbackIDsAreUnique(t *testing.T) {
	gw, st := newGateway(&fakeRemote{err: down()})
	for i := 0; i < 50; i++ {
		_, err := gw.Create(context.Background(), models.EntityProperty, map[string]any{"total_price": i}, "")
		require.NoError(t, err)
	}
	seen := map[models.Text]bool{}
	for _, p := range st.Properties() {
		require.False(t, seen[p.ID])
		seen[p.ID] = true
	}
	require.Len(t, seen, 50)
}

func TestCreate_UserFallback(t *testing.T) {
	gw, st := newGateway(&fakeRemote{err: down()})
	res, err := gw.Create(context.Background(), models.EntityUser, map[string]any{
		"name": "新人", "email": "new@haoshi.com", "role": "user",
	}, "系統管理員")
	require.NoError(t, err)

	u, err := st.User(res.ID)
	require.NoError(t, err)
	require.True(t, u.Active())
	require.Equal(t, "2026-01-07T09:30:00Z", u.ImportedAt)
}

func TestCreate_RemoteEchoIsCached(t *testing.T) {
	remote := &fakeRemote{response: &backend.MutationResponse{
		Status: "success",
		Data:   json.RawMessage(`[{"id":42,"community_name":"上城捷境","total_price":"980"}]`),
	}}
	gw, st := newGateway(remote)

	res, err := gw.Create(context.Background(), models.EntityProperty, map[string]any{"community_name": "上城捷境"}, "小明")
	require.NoError(t, err)
	require.False(t, res.Simulated)
	require.Equal(t, "42", res.ID)

	p, err := st.Property("42")
	require.NoError(t, err)
	require.Equal(t, "上城捷境", p.CommunityName)
	require.Equal(t, "create", remote.requests[0].Action)
	require.Equal(t, "小明", remote.requests[0].User)
}

func TestUpdate_FallbackMerges(t *testing.T) {
	gw, st := newGateway(&fakeRemote{err: down()})
	_, err := gw.Refresh(context.Background())
	require.NoError(t, err)

	res, err := gw.Update(context.Background(), models.EntityProperty, "demo-prop-1", map[string]any{"total_price": 1150.0}, "小明")
	require.NoError(t, err)
	require.True(t, res.Simulated)

	p, err := st.Property("demo-prop-1")
	require.NoError(t, err)
	require.Equal(t, 1150.0, p.TotalPrice.Float())
	require.Equal(t, "威均天翔", p.CommunityName)
	require.Equal(t, "小明", p.Maintainer)
	require.Equal(t, "2026-01-07", p.UpdatedAtSource)
}

func TestUpdate_RemoteWithoutEchoMergesOptimistically(t *testing.T) {
	remote := &fakeRemote{}
	gw, st := newGateway(remote)
	props := []models.Property{{ID: "p1", CommunityName: "A", TotalPrice: "1000"}}
	st.Replace(store.Snapshot{Properties: &props})

	_, err := gw.Update(context.Background(), models.EntityProperty, "p1", map[string]any{"notes": "新備註"}, "錦宣")
	require.NoError(t, err)

	p, _ := st.Property("p1")
	require.Equal(t, "新備註", p.Notes)
	require.Equal(t, "A", p.CommunityName)
	require.Empty(t, p.Maintainer)
	require.Equal(t, "p1", remote.requests[0].ID)
}

func TestUpdate_UnknownID(t *testing.T) {
	gw, _ := newGateway(&fakeRemote{})
	_, err := gw.Update(context.Background(), models.EntityCommunity, "nope", map[string]any{}, "")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdate_RejectionIsNotMasked(t *testing.T) {
	remote := &fakeRemote{err: fmt.Errorf("%w: duplicate name", backend.ErrRejected)}
	gw, st := newGateway(remote)
	comms := []models.Community{{ID: "c1", CommunityName: "A"}}
	st.Replace(store.Snapshot{Communities: &comms})

	_, err := gw.Update(context.Background(), models.EntityCommunity, "c1", map[string]any{"community_name": "B"}, "")
	require.ErrorIs(t, err, backend.ErrRejected)

	c, _ := st.Community("c1")
	require.Equal(t, "A", c.CommunityName)
}

func TestDelete_AppliesEitherWay(t *testing.T) {
	for _, remoteErr := range []error{nil, down()} {
		gw, st := newGateway(&fakeRemote{err: remoteErr})
		props := []models.Property{{ID: "p1"}, {ID: "p2"}}
		st.Replace(store.Snapshot{Properties: &props})

		res, err := gw.Delete(context.Background(), models.EntityProperty, "p1", "")
		require.NoError(t, err)
		require.Equal(t, remoteErr != nil, res.Simulated)
		require.Len(t, st.Properties(), 1)
	}
}

func TestBreakerShortCircuitsToFallback(t *testing.T) {
	remote := &fakeRemote{err: down()}
	cb := backend.NewCircuitBreaker(1, time.Hour, zap.NewNop())
	gw, st := newGateway(remote, backend.WithBreaker(cb))
	props := []models.Property{{ID: "p1"}}
	st.Replace(store.Snapshot{Properties: &props})

	_, err := gw.Update(context.Background(), models.EntityProperty, "p1", map[string]any{"notes": "a"}, "")
	require.NoError(t, err)
	require.True(t, cb.GetStatus().Open)

	_, err = gw.Update(context.Background(), models.EntityProperty, "p1", map[string]any{"notes": "b"}, "")
	require.NoError(t, err)
	require.Len(t, remote.requests, 1)
}

func TestUploadPhotos(t *testing.T) {
	remote := &fakeRemote{urls: []string{"https://cdn/x.jpg", "https://cdn/y.jpg"}}
	gw, st := newGateway(remote)
	props := []models.Property{{ID: "p1", PhotoPaths: []string{"https://cdn/x.jpg"}}}
	st.Replace(store.Snapshot{Properties: &props})

	urls, err := gw.UploadPhotos(context.Background(), "p1", nil, "錦宣")
	require.NoError(t, err)
	require.Len(t, urls, 2)

	p, _ := st.Property("p1")
	require.Equal(t, []string{"https://cdn/x.jpg", "https://cdn/y.jpg"}, p.PhotoPaths)

	remote.err = down()
	_, err = gw.UploadPhotos(context.Background(), "p1", nil, "錦宣")
	require.True(t, errors.Is(err, backend.ErrUnavailable))
}
