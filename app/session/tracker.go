// Package session holds the client side of the watch-party sync protocol:
// the state machine tracking the shared session document and the controller
// reconciling the local player against it.
package session

import (
	"errors"
	"sync"

	"marcel.works/nookstube-go/app/model"
)

var (
	ErrNotAuthenticated  = errors.New("must be logged in to do that")
	ErrNotSubscribed     = errors.New("not subscribed to a session")
	ErrAlreadySubscribed = errors.New("already subscribed to a session")
)

// Store is what the session package needs from the document store.
type Store interface {
	Update(sessionId string, update model.SessionUpdate) error
	Subscribe(sessionId string, callback func(model.Session)) (func(), error)
}

// Tracker owns the local belief about one session's shared state. It has no
// bootstrap mode: the first document pushed after subscribing travels the
// same merge path as every later one, which is exactly what lets a late
// joiner converge from a single document.
type Tracker struct {
	store Store

	mu          sync.Mutex
	sessionId   string
	subscribing bool
	cancel      func()
	snapshot    model.Session
	hasDoc      bool
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Start subscribes to sessionId. onChange is invoked with the snapshot after
// every observed document, the initial one included.
func (t *Tracker) Start(sessionId string, onChange func(model.Session)) error {
	t.mu.Lock()
	if t.subscribing || t.cancel != nil {
		t.mu.Unlock()
		return ErrAlreadySubscribed
	}
	t.subscribing = true
	t.sessionId = sessionId
	t.mu.Unlock()

	cancel, err := t.store.Subscribe(sessionId, func(document model.Session) {
		snapshot := t.Observe(document.AsUpdate())
		if onChange != nil {
			onChange(snapshot)
		}
	})

	t.mu.Lock()
	if err != nil {
		t.subscribing = false
		t.sessionId = ""
		t.mu.Unlock()
		return err
	}
	if !t.subscribing {
		// Stop ran while the subscription was being set up; release the
		// fresh subscription instead of leaking it.
		t.snapshot = model.Session{}
		t.hasDoc = false
		t.mu.Unlock()
		cancel()
		return nil
	}
	t.subscribing = false
	t.cancel = cancel
	t.mu.Unlock()
	return nil
}

// Observe merges the present fields of update onto the snapshot and returns
// the result. Fields absent from update keep their previous value; nothing
// is validated here, a dangling currentVideoId is the writer's problem.
func (t *Tracker) Observe(update model.SessionUpdate) model.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snapshot.Id == "" {
		t.snapshot.Id = t.sessionId
	}
	t.snapshot.Apply(update)
	t.hasDoc = true
	return t.snapshot
}

// Current returns the latest snapshot and whether a document has been
// observed since the last Start.
func (t *Tracker) Current() (model.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot, t.hasDoc
}

// Stop cancels the subscription and discards the snapshot. A later Start is
// a fresh subscription with no memory of prior state.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.subscribing = false
	t.sessionId = ""
	t.snapshot = model.Session{}
	t.hasDoc = false
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
