package service

import (
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/rethinkdb/rethinkdb-go.v6"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"marcel.works/nookstube-go/app/model"
)

var (
	db            = "nookstube"
	tableSessions = "sessions"
)

// RethinkService is the changefeed-backed alternative to RedisService: the
// database itself pushes every new document version to subscribers, the
// writer's own updates included.
type RethinkService struct {
	Session *rethinkdb.Session
}

func (s *RethinkService) Connect() error {
	dbHostEnv := os.Getenv("NOOKSTUBE_DB_HOSTS")
	if dbHostEnv == "" {
		dbHostEnv = "localhost:28015"
	}
	hosts := strings.Split(dbHostEnv, ",")
	session, err := r.Connect(r.ConnectOpts{
		Addresses: hosts,
	})
	if err != nil {
		return err
	}
	s.Session = session
	return nil
}

func (s *RethinkService) CreateSession(name string, videos []string) (string, error) {
	session := model.Session{
		Id:     uuid.NewString(),
		Name:   name,
		Videos: videos,
		Action: model.ActionNone,
	}
	_, err := r.DB(db).Table(tableSessions).Insert(session).RunWrite(s.Session)
	if err != nil {
		return "", err
	}
	return session.Id, nil
}

func (s *RethinkService) Get(sessionId string) (model.Session, error) {
	var session model.Session
	result, err := r.DB(db).Table(tableSessions).Get(sessionId).Run(s.Session)
	if err != nil {
		return session, err
	}
	defer result.Close()
	if result.IsNil() {
		return session, ErrSessionNotFound
	}
	err = result.One(&session)
	return session, err
}

func (s *RethinkService) GetAll() ([]model.Session, error) {
	result, err := r.DB(db).Table(tableSessions).Run(s.Session)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var sessions []model.Session
	err = result.All(&sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update merges only the fields present in update; RethinkDB's Update term
// already has field-merge semantics, so the partial goes straight through.
func (s *RethinkService) Update(sessionId string, update model.SessionUpdate) error {
	fields := update.Fields()
	if len(fields) == 0 {
		return nil
	}
	response, err := r.DB(db).Table(tableSessions).
		Get(sessionId).
		Update(fields).
		RunWrite(s.Session)
	if err != nil {
		return err
	}
	if response.Skipped > 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RethinkService) Subscribe(sessionId string, callback func(model.Session)) (func(), error) {
	cursor, err := r.DB(db).Table(tableSessions).
		Get(sessionId).
		Changes(r.ChangesOpts{IncludeInitial: true}).
		Run(s.Session)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	closed := false

	go func() {
		var change struct {
			NewVal *model.Session `rethinkdb:"new_val"`
		}
		for cursor.Next(&change) {
			if change.NewVal == nil {
				continue
			}
			mu.Lock()
			if closed {
				mu.Unlock()
				return
			}
			callback(*change.NewVal)
			mu.Unlock()
		}
		if err := cursor.Err(); err != nil {
			zap.S().Warnw("session changefeed closed", "sessionId", sessionId, "error", err)
		}
	}()

	cancel := func() {
		mu.Lock()
		closed = true
		mu.Unlock()
		_ = cursor.Close()
	}
	return cancel, nil
}
