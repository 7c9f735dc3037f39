package service

import (
	"errors"

	"marcel.works/nookstube-go/app/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the shared session document store. Update merges the
// present fields only, never replaces the whole document, so two writers
// touching disjoint fields do not clobber each other. Subscribe invokes the
// callback once with the current document (if it exists) and again on every
// change, the subscriber's own writes included; the returned cancel func
// releases the push channel and guarantees no callback runs after it
// returns.
type SessionStore interface {
	Connect() error
	CreateSession(name string, videos []string) (string, error)
	Get(sessionId string) (model.Session, error)
	GetAll() ([]model.Session, error)
	Update(sessionId string, update model.SessionUpdate) error
	Subscribe(sessionId string, callback func(model.Session)) (func(), error)
}
