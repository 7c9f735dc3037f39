package session

import (
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"

	"marcel.works/nookstube-go/app/model"
)

// fakeStore is an in-process stand-in for the document store: updates are
// recorded and pushed documents flow straight to the subscriber.
type fakeStore struct {
	mu        sync.Mutex
	updates   []model.SessionUpdate
	updateErr error
	callback  func(model.Session)
	cancelled bool
}

func (f *fakeStore) Update(sessionId string, update model.SessionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeStore) Subscribe(sessionId string, callback func(model.Session)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = callback
	f.cancelled = false
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancelled = true
		f.callback = nil
	}, nil
}

func (f *fakeStore) push(session model.Session) {
	f.mu.Lock()
	callback := f.callback
	f.mu.Unlock()
	if callback != nil {
		callback(session)
	}
}

func (f *fakeStore) lastUpdate(t *testing.T) model.SessionUpdate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		t.Fatal("no update written")
	}
	return f.updates[len(f.updates)-1]
}

// blockingStore parks Subscribe until released, to widen the window between
// subscription setup and its registration on the tracker.
type blockingStore struct {
	fakeStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Subscribe(sessionId string, callback func(model.Session)) (func(), error) {
	close(b.entered)
	<-b.release
	return b.fakeStore.Subscribe(sessionId, callback)
}

func TestTrackerObserveMergesFields(t *testing.T) {
	tracker := NewTracker(&fakeStore{})

	name := "afro fire"
	tracker.Observe(model.SessionUpdate{Name: &name})
	seconds := 42.0
	tracker.Observe(model.SessionUpdate{Time: &seconds})

	snapshot, ok := tracker.Current()
	assert.Equal(t, true, ok)
	assert.Equal(t, "afro fire", snapshot.Name)
	assert.Equal(t, 42.0, snapshot.Time)
}

func TestTrackerAwaitingFirstDocument(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)

	err := tracker.Start("s1", nil)
	assert.Equal(t, nil, err)

	_, ok := tracker.Current()
	assert.Equal(t, false, ok)

	store.push(model.Session{Id: "s1", CurrentVideoId: "X", Time: 42})
	snapshot, ok := tracker.Current()
	assert.Equal(t, true, ok)
	assert.Equal(t, "X", snapshot.CurrentVideoId)
}

func TestTrackerNotifiesOnEveryDocument(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)

	var seen []model.Session
	err := tracker.Start("s1", func(snapshot model.Session) {
		seen = append(seen, snapshot)
	})
	assert.Equal(t, nil, err)

	store.push(model.Session{Id: "s1", CurrentVideoId: "X"})
	store.push(model.Session{Id: "s1", CurrentVideoId: "Y"})

	assert.Equal(t, 2, len(seen))
	assert.Equal(t, "X", seen[0].CurrentVideoId)
	assert.Equal(t, "Y", seen[1].CurrentVideoId)
}

func TestTrackerDoubleStart(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)

	assert.Equal(t, nil, tracker.Start("s1", nil))
	assert.Equal(t, ErrAlreadySubscribed, tracker.Start("s2", nil))
}

func TestTrackerStopDiscardsSnapshot(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)

	_ = tracker.Start("s1", nil)
	store.push(model.Session{Id: "s1", CurrentVideoId: "X"})
	tracker.Stop()

	assert.Equal(t, true, store.cancelled)
	_, ok := tracker.Current()
	assert.Equal(t, false, ok)

	// a resubscribe starts fresh
	assert.Equal(t, nil, tracker.Start("s1", nil))
	_, ok = tracker.Current()
	assert.Equal(t, false, ok)
}

func TestTrackerStopDuringSubscribeReleasesSubscription(t *testing.T) {
	store := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	tracker := NewTracker(store)

	done := make(chan error, 1)
	go func() { done <- tracker.Start("s1", nil) }()
	<-store.entered

	// the guard holds while the subscription is still being set up
	assert.Equal(t, ErrAlreadySubscribed, tracker.Start("s2", nil))

	tracker.Stop()
	close(store.release)
	assert.Equal(t, nil, <-done)

	store.mu.Lock()
	cancelled := store.cancelled
	store.mu.Unlock()
	assert.Equal(t, true, cancelled)

	_, ok := tracker.Current()
	assert.Equal(t, false, ok)
}
