package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	devicedomain "github.com/micro-ha/wol-server/internal/domain/device"
	"github.com/micro-ha/wol-server/internal/model"
)

type memoryStore struct {
	mu      sync.Mutex
	devices []devicedomain.Device
	saves   int
	saveErr error
}

func (m *memoryStore) Load(context.Context) ([]devicedomain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]devicedomain.Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (m *memoryStore) Save(_ context.Context, devices []devicedomain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.devices = make([]devicedomain.Device, 0, len(devices))
	for _, d := range devices {
		m.devices = append(m.devices, d.Clone())
	}
	return nil
}

type recordingNotifier struct {
	kinds []devicedomain.EventType
}

func (r *recordingNotifier) DeviceChanged(kind devicedomain.EventType, _ devicedomain.Device) {
	r.kinds = append(r.kinds, kind)
}

type fakeGauge struct{ value float64 }

func (g *fakeGauge) Set(v float64) { g.value = v }

func newTestService(store *memoryStore) *Service {
	svc := New(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("dev-%d", seq)
	}
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

// blockingNotifier parks inside DeviceChanged until released.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) DeviceChanged(devicedomain.EventType, devicedomain.Device) {
	b.entered <- struct{}{}
	<-b.release
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestUpsertCreatesDeviceWithDefaults(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)

	d, err := svc.Upsert(context.Background(), devicedomain.Input{MACAddress: "AA:BB:CC:DD:EE:FF"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if d.ID != "dev-1" || d.Name != "Device (AA:BB:CC:DD:EE:FF)" || d.IsOnline {
		t.Fatalf("unexpected device %+v", d)
	}
	if d.Tags == nil || len(d.Tags) != 0 {
		t.Fatalf("expected empty tags, got %#v", d.Tags)
	}
	if d.CreatedAt.IsZero() || d.IPAddress != nil {
		t.Fatalf("unexpected defaults %+v", d)
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}
}

func TestUpsertRejectsInvalidMACWithoutSaving(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)

	for _, mac := range []string{"", "not-a-mac", "AA:BB:CC:DD:EE"} {
		_, err := svc.Upsert(context.Background(), devicedomain.Input{MACAddress: mac})
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("mac %q: expected ValidationError, got %v", mac, err)
		}
	}
	if store.saves != 0 {
		t.Fatalf("expected no saves, got %d", store.saves)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	svc := newTestService(&memoryStore{})
	in := devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff", Name: "NAS", IPAddress: strPtr("192.168.1.10"), Tags: []string{"lab"}}

	first, err := svc.Upsert(context.Background(), in)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := svc.Upsert(context.Background(), in)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical devices\nfirst=%+v\nsecond=%+v", first, second)
	}
	all, _ := svc.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one device, got %d", len(all))
	}
}

func TestUpsertMergesCaseInsensitively(t *testing.T) {
	svc := newTestService(&memoryStore{})
	ctx := context.Background()

	first, _ := svc.Upsert(ctx, devicedomain.Input{MACAddress: "AA:BB:CC:DD:EE:FF", Name: "X", Tags: []string{"a"}})
	second, err := svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa-bb-cc-dd-ee-ff", Name: "", Tags: []string{"b", "a"}})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same id, got %s and %s", first.ID, second.ID)
	}
	if second.Name != "X" {
		t.Fatalf("empty name must not clobber, got %q", second.Name)
	}
	if !reflect.DeepEqual(second.Tags, []string{"a", "b"}) {
		t.Fatalf("expected tag union, got %v", second.Tags)
	}
	if second.MACAddress != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("stored MAC must be preserved, got %s", second.MACAddress)
	}
}

func TestUpsertOverlayReplacesNonEmptyFields(t *testing.T) {
	svc := newTestService(&memoryStore{})
	ctx := context.Background()

	_, _ = svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff", IPAddress: strPtr("10.0.0.1")})
	got, err := svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff", Name: "Desk", IPAddress: strPtr("10.0.0.2"), Port: intPtr(7)})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if got.Name != "Desk" || got.IPAddress == nil || *got.IPAddress != "10.0.0.2" || got.Port == nil || *got.Port != 7 {
		t.Fatalf("unexpected overlay result %+v", got)
	}

	got, _ = svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff", IPAddress: strPtr("")})
	if got.IPAddress == nil || *got.IPAddress != "10.0.0.2" {
		t.Fatalf("empty ip must not clobber, got %+v", got.IPAddress)
	}
}

func TestUpdatePatchesFieldsAndKeepsIdentity(t *testing.T) {
	svc := newTestService(&memoryStore{})
	ctx := context.Background()
	created, _ := svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff", IPAddress: strPtr("10.0.0.1"), Tags: []string{"x"}})

	online := true
	tags := []string{"y", "y", " z "}
	updated, err := svc.Update(ctx, created.ID, devicedomain.Patch{
		Name:      strPtr("Office PC"),
		IsOnline:  &online,
		Tags:      &tags,
		IPAddress: model.Nullable[string]{Set: true},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("identity changed: %+v", updated)
	}
	if updated.Name != "Office PC" || !updated.IsOnline || updated.IPAddress != nil {
		t.Fatalf("unexpected patch result %+v", updated)
	}
	if !reflect.DeepEqual(updated.Tags, []string{"y", "z"}) {
		t.Fatalf("unexpected tags %v", updated.Tags)
	}
}

func TestUpdateRejectsIDChangeAndUnknownID(t *testing.T) {
	svc := newTestService(&memoryStore{})
	ctx := context.Background()
	created, _ := svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff"})

	var verr *model.ValidationError
	if _, err := svc.Update(ctx, created.ID, devicedomain.Patch{ID: strPtr("other")}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for id change, got %v", err)
	}
	if _, err := svc.Update(ctx, created.ID, devicedomain.Patch{ID: strPtr(created.ID)}); err != nil {
		t.Fatalf("same id in body should be accepted, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", devicedomain.Patch{Name: strPtr("x")}); !errors.Is(err, devicedomain.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestUpdateRejectsMACCollision(t *testing.T) {
	svc := newTestService(&memoryStore{})
	ctx := context.Background()
	_, _ = svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:01"})
	second, _ := svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:02"})

	if _, err := svc.Update(ctx, second.ID, devicedomain.Patch{MACAddress: strPtr("AA:BB:CC:DD:EE:01")}); !errors.Is(err, devicedomain.ErrDuplicateMAC) {
		t.Fatalf("expected ErrDuplicateMAC, got %v", err)
	}
	var verr *model.ValidationError
	if _, err := svc.Update(ctx, second.ID, devicedomain.Patch{MACAddress: strPtr("bogus")}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	gauge := &fakeGauge{}
	svc := newTestService(store)
	svc.notifier = notifier
	svc.WithGauge(gauge)
	ctx := context.Background()

	created, _ := svc.Upsert(ctx, devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff"})
	if gauge.value != 1 {
		t.Fatalf("expected gauge 1, got %v", gauge.value)
	}
	if err := svc.Delete(ctx, "missing"); !errors.Is(err, devicedomain.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, devicedomain.ErrDeviceNotFound) {
		t.Fatalf("expected deleted device to be gone, got %v", err)
	}
	if gauge.value != 0 {
		t.Fatalf("expected gauge 0, got %v", gauge.value)
	}
	want := []devicedomain.EventType{devicedomain.EventDeviceCreated, devicedomain.EventDeviceDeleted}
	if !reflect.DeepEqual(notifier.kinds, want) {
		t.Fatalf("unexpected events %v", notifier.kinds)
	}
}

func TestSaveFailureIsReturned(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("disk full")}
	svc := newTestService(store)
	if _, err := svc.Upsert(context.Background(), devicedomain.Input{MACAddress: "aa:bb:cc:dd:ee:ff"}); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestConcurrentUpsertsDoNotLoseWrites(t *testing.T) {
	store := &memoryStore{}
	svc := New(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mac := fmt.Sprintf("aa:bb:cc:dd:ee:%02x", i)
			if _, err := svc.Upsert(context.Background(), devicedomain.Input{MACAddress: mac}); err != nil {
				t.Errorf("Upsert %s: %v", mac, err)
			}
		}(i)
	}
	wg.Wait()

	all, _ := svc.List(context.Background())
	if len(all) != 20 {
		t.Fatalf("expected 20 devices, got %d", len(all))
	}
}

func TestFindByMAC(t *testing.T) {
	svc := newTestService(&memoryStore{})
	ctx := context.Background()
	created, _ := svc.Upsert(ctx, devicedomain.Input{MACAddress: "AA-BB-CC-DD-EE-FF"})

	if created.MACAddress != "AA:BB:CC:DD:EE:FF" || created.Name != "Device (AA:BB:CC:DD:EE:FF)" {
		t.Fatalf("hyphen input not stored in colon form: mac=%q name=%q", created.MACAddress, created.Name)
	}

	got, ok, err := svc.FindByMAC(ctx, "aa:bb:cc:dd:ee:ff")
	if err != nil || !ok || got.ID != created.ID {
		t.Fatalf("FindByMAC = %+v %v %v", got, ok, err)
	}
	if _, ok, _ := svc.FindByMAC(ctx, "00:00:00:00:00:00"); ok {
		t.Fatalf("expected miss")
	}
}

func TestNotifierRunsOutsideRegistryLock(t *testing.T) {
	notifier := &blockingNotifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
	svc := newTestService(&memoryStore{})
	svc.notifier = notifier
	ctx := context.Background()

	upserted := make(chan error, 1)
	go func() {
		_, err := svc.Upsert(ctx, devicedomain.Input{MACAddress: "AA:BB:CC:DD:EE:FF"})
		upserted <- err
	}()

	select {
	case <-notifier.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("notifier was never called")
	}

	listed := make(chan int, 1)
	go func() {
		all, _ := svc.List(ctx)
		listed <- len(all)
	}()
	select {
	case n := <-listed:
		if n != 1 {
			t.Fatalf("expected the saved device to be visible, got %d", n)
		}
	case <-time.After(time.Second):
		close(notifier.release)
		t.Fatalf("List blocked while the notifier was running")
	}

	close(notifier.release)
	if err := <-upserted; err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}
