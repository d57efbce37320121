package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// fakePatientServer is an in-memory /patients endpoint behind a stubDispatcher.
type fakePatientServer struct {
	t        *testing.T
	mu       sync.Mutex
	patients map[int64]domain.Patient
	nextID   int64
	failNext error
}

func newFakePatientServer(t *testing.T, initial ...domain.Patient) *fakePatientServer {
	s := &fakePatientServer{t: t, patients: make(map[int64]domain.Patient), nextID: 1}
	for _, p := range initial {
		s.patients[p.ID] = p
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return s
}

func (s *fakePatientServer) send(_ context.Context, method, path string, body any) (*ports.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return nil, err
	}

	var id int64
	if path != "/patients" {
		var err error
		if id, err = parseItemID(path); err != nil {
			s.t.Fatalf("bad path %q", path)
		}
	}

	switch {
	case method == http.MethodGet && path == "/patients":
		out := make([]domain.Patient, 0, len(s.patients))
		for i := int64(1); i < s.nextID; i++ {
			if p, ok := s.patients[i]; ok {
				out = append(out, p)
			}
		}
		return jsonResponse(s.t, out), nil
	case method == http.MethodPost:
		p := domain.Patient{ID: s.nextID, PatientFields: body.(domain.PatientFields)}
		s.patients[p.ID] = p
		s.nextID++
		return jsonResponse(s.t, p), nil
	}

	p, ok := s.patients[id]
	if !ok {
		return nil, requestError(domain.KindNotFound, http.StatusNotFound, "Patient not found")
	}
	switch method {
	case http.MethodGet:
		return jsonResponse(s.t, p), nil
	case http.MethodPut:
		p.PatientFields = p.PatientFields.Apply(body.(domain.PatientFields))
		s.patients[id] = p
		return jsonResponse(s.t, p), nil
	case http.MethodDelete:
		delete(s.patients, id)
		return rawResponse(`{"message":"Patient deleted successfully"}`), nil
	}
	s.t.Fatalf("unexpected %s %s", method, path)
	return nil, nil
}

func parseItemID(path string) (int64, error) {
	raw, ok := strings.CutPrefix(path, "/patients/")
	if !ok {
		return 0, errors.New("not an item path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func newPatients(d ports.Dispatcher, guard ports.SessionGuard) (*PatientCollection, *EntityCache) {
	cache := NewEntityCache()
	return NewPatientCollection(d, cache, guard, zerolog.Nop()), cache
}

func TestCollection_GetIsServedFromCache(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"))
	d := &stubDispatcher{sendFn: srv.send}
	patients, _ := newPatients(d, nil)

	first, err := patients.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := patients.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.FullName() != second.FullName() || first.FullName() != "Ann Doe" {
		t.Fatalf("expected identical records, got %q and %q", first.FullName(), second.FullName())
	}
	if n := d.count(http.MethodGet, "/patients/1"); n != 1 {
		t.Fatalf("expected 1 request, got %d", n)
	}
}

func TestCollection_ListSeedsRecordEntries(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"), patient(2, "Bob"))
	d := &stubDispatcher{sendFn: srv.send}
	patients, cache := newPatients(d, nil)

	list, err := patients.List(context.Background())
	if err != nil || len(list) != 2 {
		t.Fatalf("List: %v %d", err, len(list))
	}
	if _, err := patients.Get(context.Background(), 2); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(d.requests()) != 1 {
		t.Fatalf("expected Get served from list fetch, got %d requests", len(d.requests()))
	}
	if entries := cache.Entries(domain.CollectionPatients); len(entries) != 3 {
		t.Fatalf("expected list + 2 record entries, got %+v", entries)
	}
}

func TestCollection_ListReturnsCopy(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"))
	d := &stubDispatcher{sendFn: srv.send}
	patients, _ := newPatients(d, nil)

	list, _ := patients.List(context.Background())
	list[0].ID = 99

	again, _ := patients.List(context.Background())
	if again[0].ID != 1 {
		t.Fatalf("cached list was mutated through a returned slice")
	}
}

func TestCollection_ReturnedFieldsDoNotAliasCache(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"))
	d := &stubDispatcher{sendFn: srv.send}
	patients, _ := newPatients(d, nil)

	p, err := patients.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	*p.FirstName = "Mallory"

	again, _ := patients.Get(context.Background(), 1)
	if got := domain.Deref(again.FirstName); got != "Ann" {
		t.Fatalf("cached record was mutated through a returned field: %q", got)
	}

	list, err := patients.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	*list[0].LastName = "Corrupt"

	fromList, _ := patients.List(context.Background())
	if got := domain.Deref(fromList[0].LastName); got != "Doe" {
		t.Fatalf("cached list was mutated through a returned field: %q", got)
	}
	byID, _ := patients.Get(context.Background(), 1)
	if got := domain.Deref(byID.LastName); got != "Doe" {
		t.Fatalf("record seeded by List was mutated through a returned field: %q", got)
	}

	if n := len(d.requests()); n != 2 {
		t.Fatalf("expected one Get and one List request, got %d", n)
	}
}

func TestCollection_SuccessfulMutationInvalidates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PatientCollection) error
		want   int
	}{
		{
			name: "create",
			mutate: func(c *PatientCollection) error {
				_, err := c.Create(context.Background(), domain.PatientFields{FirstName: domain.String("Cy")})
				return err
			},
			want: 3,
		},
		{
			name: "update",
			mutate: func(c *PatientCollection) error {
				_, err := c.Update(context.Background(), 1, domain.PatientFields{Phone: domain.String("555")})
				return err
			},
			want: 2,
		},
		{
			name:   "delete",
			mutate: func(c *PatientCollection) error { return c.Delete(context.Background(), 2) },
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakePatientServer(t, patient(1, "Ann"), patient(2, "Bob"))
			d := &stubDispatcher{sendFn: srv.send}
			patients, _ := newPatients(d, nil)

			if _, err := patients.List(context.Background()); err != nil {
				t.Fatalf("List: %v", err)
			}
			if err := tt.mutate(patients); err != nil {
				t.Fatalf("mutate: %v", err)
			}
			list, err := patients.List(context.Background())
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != tt.want {
				t.Fatalf("expected %d patients after %s, got %d", tt.want, tt.name, len(list))
			}
			if n := d.count(http.MethodGet, "/patients"); n != 2 {
				t.Fatalf("expected list to be refetched, got %d fetches", n)
			}
		})
	}
}

func TestCollection_UpdateInvalidatesRecordEntry(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"))
	d := &stubDispatcher{sendFn: srv.send}
	patients, _ := newPatients(d, nil)

	_, _ = patients.Get(context.Background(), 1)
	if _, err := patients.Update(context.Background(), 1, domain.PatientFields{FirstName: domain.String("Anna")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := patients.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if domain.Deref(got.FirstName) != "Anna" {
		t.Fatalf("expected fresh record, got %q", domain.Deref(got.FirstName))
	}
}

func TestCollection_FailedMutationKeepsCacheAndRollsBack(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"))
	d := &stubDispatcher{sendFn: srv.send}
	patients, cache := newPatients(d, nil)

	if _, err := patients.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}

	var applied, rolledBack bool
	_, err := patients.Update(context.Background(), 7, domain.PatientFields{Phone: domain.String("1")},
		WithOptimistic(func() { applied = true }, func() { rolledBack = true }))
	if !errors.Is(err, domain.ErrNotFound) || domain.Reason(err) != "Patient not found" {
		t.Fatalf("expected not found, got %v", err)
	}
	if !applied || !rolledBack {
		t.Fatalf("expected apply and rollback, got %v %v", applied, rolledBack)
	}

	for _, e := range cache.Entries(domain.CollectionPatients) {
		if !e.Fresh {
			t.Fatalf("failed mutation must not invalidate, entry %s stale", e.ID)
		}
	}
	if _, err := patients.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if n := d.count(http.MethodGet, "/patients"); n != 1 {
		t.Fatalf("expected cached list, got %d fetches", n)
	}
	if len(patients.Pending()) != 0 {
		t.Fatalf("expected no pending mutations")
	}
}

func TestCollection_SuccessfulMutationKeepsOptimisticState(t *testing.T) {
	srv := newFakePatientServer(t)
	d := &stubDispatcher{sendFn: srv.send}
	patients, _ := newPatients(d, nil)

	var rolledBack bool
	created, err := patients.Create(context.Background(), domain.PatientFields{FirstName: domain.String("Eve")},
		WithOptimistic(nil, func() { rolledBack = true }))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rolledBack {
		t.Fatalf("rollback must not run on success")
	}
	if created.ID != 1 {
		t.Fatalf("expected server-assigned id 1, got %d", created.ID)
	}
}

func TestCollection_RefetchFailureDoesNotServeStaleData(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"))
	d := &stubDispatcher{sendFn: srv.send}
	patients, _ := newPatients(d, nil)

	_, _ = patients.List(context.Background())
	if err := patients.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	srv.failNext = requestError(domain.KindNetworkUnavailable, 0, "")
	list, err := patients.List(context.Background())
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("expected network error, got %v", err)
	}
	if list != nil {
		t.Fatalf("stale list must not be returned, got %+v", list)
	}
}

func TestCollection_FetchAcrossInvalidationIsNotCached(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"), patient(2, "Bob"))
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	d := &stubDispatcher{}
	d.sendFn = func(ctx context.Context, method, path string, body any) (*ports.Response, error) {
		if method == http.MethodGet && path == "/patients" {
			// Snapshot the server state, then hold the response back.
			resp, err := srv.send(ctx, method, path, body)
			blocked := false
			once.Do(func() { blocked = true })
			if blocked {
				close(entered)
				<-release
			}
			return resp, err
		}
		return srv.send(ctx, method, path, body)
	}
	patients, _ := newPatients(d, nil)

	done := make(chan []domain.Patient)
	go func() {
		list, _ := patients.List(context.Background())
		done <- list
	}()

	<-entered
	if err := patients.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	close(release)

	if old := <-done; len(old) != 2 {
		t.Fatalf("in-flight list should still return its own response, got %d", len(old))
	}

	list, err := patients.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected post-delete list, got %d records", len(list))
	}
	if n := d.count(http.MethodGet, "/patients"); n != 2 {
		t.Fatalf("expected a refetch, got %d fetches", n)
	}
}

func TestCollection_ConcurrentUpdatesSettleOnServerState(t *testing.T) {
	srv := newFakePatientServer(t, patient(1, "Ann"))
	bApplied := make(chan struct{})

	d := &stubDispatcher{}
	d.sendFn = func(ctx context.Context, method, path string, body any) (*ports.Response, error) {
		if method == http.MethodPut {
			// The server processes B first and A last, so A wins.
			if domain.Deref(body.(domain.PatientFields).FirstName) == "A" {
				<-bApplied
				return srv.send(ctx, method, path, body)
			}
			resp, err := srv.send(ctx, method, path, body)
			close(bApplied)
			return resp, err
		}
		return srv.send(ctx, method, path, body)
	}
	patients, _ := newPatients(d, nil)
	_, _ = patients.Get(context.Background(), 1)

	var wg sync.WaitGroup
	for _, name := range []string{"A", "B"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := patients.Update(context.Background(), 1, domain.PatientFields{FirstName: domain.String(name)}); err != nil {
				t.Errorf("Update %s: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	got, err := patients.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if domain.Deref(got.FirstName) != "A" {
		t.Fatalf("expected server's final state A, got %q", domain.Deref(got.FirstName))
	}
	if n := d.count(http.MethodGet, "/patients/1"); n != 2 {
		t.Fatalf("expected a refetch after both updates, got %d", n)
	}
}

func TestCollection_PendingTracksInFlightMutations(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	d := &stubDispatcher{
		sendFn: func(context.Context, string, string, any) (*ports.Response, error) {
			close(entered)
			<-release
			return rawResponse(`{"message":"Patient deleted successfully"}`), nil
		},
	}
	patients, _ := newPatients(d, nil)

	errc := make(chan error)
	go func() { errc <- patients.Delete(context.Background(), 5) }()

	<-entered
	pending := patients.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending mutation, got %d", len(pending))
	}
	pm := pending[0]
	if pm.Op != domain.OpDelete || pm.TargetID == nil || *pm.TargetID != 5 || pm.ID == "" {
		t.Fatalf("unexpected pending mutation %+v", pm)
	}
	if time.Since(pm.StartedAt) > time.Minute {
		t.Fatalf("unexpected start time %v", pm.StartedAt)
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(patients.Pending()) != 0 {
		t.Fatalf("expected pending mutation settled")
	}
}

func TestCollection_RequiresSession(t *testing.T) {
	d := &stubDispatcher{}
	patients, _ := newPatients(d, stubGuard{err: domain.ErrNotAuthenticated})

	if _, err := patients.List(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("List: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := patients.Create(context.Background(), domain.PatientFields{}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("Create: expected ErrNotAuthenticated, got %v", err)
	}
	if len(d.requests()) != 0 {
		t.Fatalf("expected nothing sent")
	}
}

func TestEntityCache_InvalidateIsPerCollection(t *testing.T) {
	cache := NewEntityCache()
	cache.put("patients", allKey, []int{1}, cache.generation("patients"))
	cache.put("notes", allKey, []int{2}, cache.generation("notes"))

	cache.Invalidate("patients")

	if _, res := cache.lookup("patients", allKey); res != lookupStale {
		t.Fatalf("expected stale patients entry, got %s", res)
	}
	if _, res := cache.lookup("notes", allKey); res != lookupHit {
		t.Fatalf("expected notes entry untouched, got %s", res)
	}
	if _, res := cache.lookup("patients", "9"); res != lookupMiss {
		t.Fatalf("expected miss, got %s", res)
	}
	if cache.put("patients", allKey, []int{3}, 0) {
		t.Fatalf("put under an old generation must be refused")
	}
}
