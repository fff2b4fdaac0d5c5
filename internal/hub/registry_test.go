package hub

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle records sends and closes for registry and broadcaster tests.
type fakeHandle struct {
	mu         sync.Mutex
	sent       [][]byte
	sendErr    error
	sendHook   func()
	closed     int
	closeCode  int
	closeCalls int
}

func (f *fakeHandle) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendHook != nil {
		f.sendHook()
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeHandle) CloseWithCode(code int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	f.closeCode = code
}

func (f *fakeHandle) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeHandle) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestAdmitFirstConnection(t *testing.T) {
	r := NewRegistry()
	h1 := &fakeHandle{}

	evicted := r.Admit("1", "anna", h1)

	assert.Nil(t, evicted)
	assert.Equal(t, 1, r.RoomSize("1"))
}

func TestAdmitEvictsPreviousSameKey(t *testing.T) {
	r := NewRegistry()
	h1 := &fakeHandle{}
	h2 := &fakeHandle{}

	require.Nil(t, r.Admit("1", "anna", h1))

	evicted := r.Admit("1", "anna", h2)
	require.NotNil(t, evicted)
	assert.Same(t, h1, evicted.(*fakeHandle))

	// Only the newest handle remains registered.
	snapshot := r.Snapshot("1")
	require.Len(t, snapshot, 1)
	assert.Same(t, h2, snapshot[0].Handle.(*fakeHandle))
}

func TestAdmitSequenceEvictsEachPredecessorOnce(t *testing.T) {
	r := NewRegistry()

	var handles []*fakeHandle
	for i := 0; i < 5; i++ {
		h := &fakeHandle{}
		handles = append(handles, h)
		if evicted := r.Admit("1", "anna", h); evicted != nil {
			evicted.CloseWithCode(CloseSuperseded, "superseded")
		}
	}

	for i, h := range handles[:len(handles)-1] {
		assert.Equal(t, 1, h.closeCalls, "handle %d should be closed exactly once", i)
		assert.Equal(t, CloseSuperseded, h.closeCode, "handle %d close code", i)
	}
	assert.Equal(t, 0, handles[len(handles)-1].closeCalls)
	assert.Equal(t, 1, r.RoomSize("1"))
}

func TestRemoveIsConditionalOnHandleIdentity(t *testing.T) {
	r := NewRegistry()
	h1 := &fakeHandle{}
	h2 := &fakeHandle{}

	r.Admit("1", "anna", h1)
	r.Admit("1", "anna", h2) // h1 evicted

	// A stale teardown from the superseded connection must not delete the
	// newer entry under the same key.
	assert.False(t, r.Remove("1", "anna", h1))
	assert.Equal(t, 1, r.RoomSize("1"))

	assert.True(t, r.Remove("1", "anna", h2))
	assert.Equal(t, 0, r.RoomSize("1"))
}

func TestRemoveMissingEntry(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Remove("1", "anna", &fakeHandle{}))
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}
	r.Admit("1", "anna", h)

	assert.True(t, r.Remove("1", "anna", h))
	assert.False(t, r.Remove("1", "anna", h))
}

func TestSnapshotIsolatedPerRoom(t *testing.T) {
	r := NewRegistry()
	r.Admit("1", "anna", &fakeHandle{})
	r.Admit("1", "max", &fakeHandle{})
	r.Admit("2", "anna", &fakeHandle{})

	assert.Len(t, r.Snapshot("1"), 2)
	assert.Len(t, r.Snapshot("2"), 1)
	assert.Empty(t, r.Snapshot("3"))
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}
	r.Admit("1", "anna", h)

	snapshot := r.Snapshot("1")
	r.Remove("1", "anna", h)

	// The snapshot taken before removal is unaffected.
	require.Len(t, snapshot, 1)
	assert.Same(t, h, snapshot[0].Handle.(*fakeHandle))
}

func TestRegistryConcurrentAdmitRemove(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%10)
			h := &fakeHandle{}
			if evicted := r.Admit("1", user, h); evicted != nil {
				evicted.CloseWithCode(CloseSuperseded, "superseded")
			}
			r.Snapshot("1")
			r.Remove("1", user, h)
		}(i)
	}
	wg.Wait()

	// Every goroutine removed only its own handle, so nothing leaks.
	assert.Equal(t, 0, r.RoomSize("1"))
}
