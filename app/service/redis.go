package service

import (
	"context"
	"os"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"marcel.works/nookstube-go/app/model"
)

const (
	_keySessions     = "nookstube.sessions"
	_keySessionBase  = "nookstube.session."
	_chanSessionBase = "nookstube.session.changes."
)

// RedisService keeps one JSON document per session key and publishes the
// merged document on a per-session channel after every write, so every
// subscriber (the writer included) observes the latest state.
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context

	writeMu sync.Mutex
}

func (s *RedisService) Connect() error {
	auth := os.Getenv("NOOKSTUBE_DB_AUTH")
	host := os.Getenv("NOOKSTUBE_DB_HOST")
	if host == "" {
		host = "localhost:6379"
	}
	s.Client = redis.NewClient(&redis.Options{
		Addr:     host,
		Password: auth,
		DB:       0,
	})
	s.Ctx = context.Background()
	return s.Client.Ping(s.Ctx).Err()
}

func (s *RedisService) CreateSession(name string, videos []string) (string, error) {
	session := model.Session{
		Id:     uuid.NewString(),
		Name:   name,
		Videos: videos,
		Action: model.ActionNone,
	}
	if err := s.put(session); err != nil {
		return "", err
	}
	if err := s.Client.SAdd(s.Ctx, _keySessions, session.Id).Err(); err != nil {
		return "", err
	}
	return session.Id, nil
}

func (s *RedisService) Get(sessionId string) (model.Session, error) {
	var session model.Session
	payload, err := s.Client.Get(s.Ctx, _keySessionBase+sessionId).Result()
	if err == redis.Nil {
		return session, ErrSessionNotFound
	}
	if err != nil {
		return session, err
	}
	err = json.Unmarshal([]byte(payload), &session)
	return session, err
}

func (s *RedisService) GetAll() ([]model.Session, error) {
	ids, err := s.Client.SMembers(s.Ctx, _keySessions).Result()
	if err != nil {
		return nil, err
	}
	var sessions []model.Session
	for _, id := range ids {
		session, err := s.Get(id)
		if err == ErrSessionNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Update merges the present fields of update onto the stored document and
// publishes the result. Fields absent from update keep their stored value.
// The read-merge-write is serialized so two writers touching disjoint fields
// both land; overlapping fields stay last-write-wins.
func (s *RedisService) Update(sessionId string, update model.SessionUpdate) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	session, err := s.Get(sessionId)
	if err != nil {
		return err
	}
	session.Apply(update)
	return s.put(session)
}

func (s *RedisService) put(session model.Session) error {
	payload, _ := json.Marshal(session)
	if err := s.Client.Set(s.Ctx, _keySessionBase+session.Id, payload, 0).Err(); err != nil {
		return err
	}
	return s.Client.Publish(s.Ctx, _chanSessionBase+session.Id, payload).Err()
}

// Subscribe delivers the current document first (when one exists) and then
// every published change. After the returned cancel func returns, the
// callback is never invoked again.
func (s *RedisService) Subscribe(sessionId string, callback func(model.Session)) (func(), error) {
	pubsub := s.Client.Subscribe(s.Ctx, _chanSessionBase+sessionId)
	if _, err := pubsub.Receive(s.Ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	var mu sync.Mutex
	closed := false
	deliver := func(session model.Session) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		callback(session)
	}

	session, err := s.Get(sessionId)
	if err == nil {
		deliver(session)
	} else if err != ErrSessionNotFound {
		zap.S().Warnw("could not read session on subscribe", "sessionId", sessionId, "error", err)
	}

	messages := pubsub.Channel()
	go func() {
		for message := range messages {
			var session model.Session
			if err := json.Unmarshal([]byte(message.Payload), &session); err != nil {
				zap.S().Warnw("could not decode session change", "sessionId", sessionId, "error", err)
				continue
			}
			deliver(session)
		}
	}()

	cancel := func() {
		mu.Lock()
		closed = true
		mu.Unlock()
		_ = pubsub.Close()
	}
	return cancel, nil
}
