package service

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-stomp/stomp"
	"go.uber.org/zap"

	"marcel.works/nookstube-go/app/model"
)

const (
	_topicCommand   = "/topic/nookstube_command"
	_topicBroadcast = "/topic/nookstube_broadcast"
)

// StompService bridges broker clients to the session store: commands come in
// on one topic, the merged session document goes back out on a per-session
// broadcast topic.
type StompService struct {
	Connection *stomp.Conn
	DbService  SessionStore
	Auth       *AuthService

	// send stands in for Connection.Send when set, so dispatch can be
	// exercised without a broker.
	send func(destination string, contentType string, body []byte) error
}

func (s *StompService) transmit(destination string, payload []byte) error {
	if s.send != nil {
		return s.send(destination, "text/plain", payload)
	}
	return s.Connection.Send(destination, "text/plain", payload)
}

func (s *StompService) Connect() error {
	brokerHost := os.Getenv("NOOKSTUBE_BROKER_HOST")
	if brokerHost == "" {
		brokerHost = "localhost:61613"
	}
	brokerUser := os.Getenv("NOOKSTUBE_BROKER_USER")
	brokerPass := os.Getenv("NOOKSTUBE_BROKER_PASS")
	options := []func(conn *stomp.Conn) error{
		stomp.ConnOpt.Login(brokerUser, brokerPass),
		stomp.ConnOpt.Host("/"),
	}
	connection, err := stomp.Dial("tcp", brokerHost, options...)
	if err != nil {
		return err
	}
	s.Connection = connection
	return nil
}

func (s *StompService) ReceiveCommands() {
	subscription, err := s.Connection.Subscribe(_topicCommand, stomp.AckAuto)
	if err != nil {
		zap.S().Fatalw("cannot subscribe to command topic", "topic", _topicCommand, "error", err)
	}
	zap.S().Infow("subscribed", "topic", _topicCommand)

	for message := range subscription.C {
		var command model.Command
		if err := json.Unmarshal(message.Body, &command); err != nil {
			zap.S().Warnw("could not decode command", "error", err)
			continue
		}
		zap.S().Infow(">>> received command", "cmd", command.Cmd, "sessionId", command.SessionId)
		switch command.Cmd {
		case CmdCreateSession:
			s.CreateSession(command)
		case CmdGetSessions:
			s.PublishSessions()
		case CmdJoinSession:
			s.PublishSession(command.SessionId)
		case CmdSelectVideo, CmdPlay, CmdPause, CmdSeek, CmdSyncTime:
			session, err := applyCommand(s.DbService, s.Auth, command)
			if err == ErrSessionNotFound {
				s.SendBroadcast("NO_SESSION_FOUND", command.SessionId, nil)
				continue
			}
			if err != nil {
				zap.S().Warnw("could not apply command", "cmd", command.Cmd, "error", err)
				continue
			}
			s.SendBroadcast("SESSION_STATE", session.Id, session)
		default:
			zap.S().Warnw("unknown command", "cmd", command.Cmd)
		}
	}
}

func (s *StompService) CreateSession(command model.Command) {
	user, err := s.Auth.Verify(command.Token)
	if err != nil {
		zap.S().Warnw("unauthenticated create rejected", "error", err)
		return
	}
	sessionId, err := s.DbService.CreateSession(command.Name, nil)
	if err != nil {
		zap.S().Warnw("could not create new session", "error", err)
		return
	}
	zap.S().Infow("session created", "sessionId", sessionId, "userId", user.Id)
	session, err := s.DbService.Get(sessionId)
	if err != nil {
		zap.S().Warnw("could not read new session", "sessionId", sessionId, "error", err)
		return
	}
	// announced on the shared topic: the creator cannot be listening on the
	// per-session topic before it learns the new id
	s.SendGeneralBroadcast("SESSION_CREATED", session)
}

func (s *StompService) PublishSession(sessionId string) {
	session, err := s.DbService.Get(sessionId)
	if err != nil {
		zap.S().Warnw("no session found", "sessionId", sessionId, "error", err)
		s.SendBroadcast("NO_SESSION_FOUND", sessionId, nil)
		return
	}
	s.SendBroadcast("SESSION_STATE", sessionId, session)
}

func (s *StompService) PublishSessions() {
	sessions, err := s.DbService.GetAll()
	if err != nil {
		zap.S().Warnw("could not list sessions", "error", err)
		return
	}
	s.SendGeneralBroadcast("SESSIONS", sessions)
}

// SendGeneralBroadcast publishes on the shared broadcast topic, where
// clients not yet attached to any session listen.
func (s *StompService) SendGeneralBroadcast(typ string, data interface{}) {
	broadcast := model.Broadcast{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now(),
	}
	payload, _ := json.Marshal(broadcast)
	if err := s.transmit(_topicBroadcast, payload); err != nil {
		zap.S().Warnw("could not send broadcast", "type", typ, "error", err)
		return
	}
	zap.S().Infow("<<< sent broadcast", "type", typ)
}

func (s *StompService) SendBroadcast(typ string, sessionId string, data interface{}) {
	broadcast := model.Broadcast{
		Type:      typ,
		Data:      data,
		Timestamp: time.Now(),
	}
	payload, _ := json.Marshal(broadcast)
	if err := s.transmit(_topicBroadcast+"."+sessionId, payload); err != nil {
		zap.S().Warnw("could not send broadcast", "type", typ, "error", err)
		return
	}
	zap.S().Infow("<<< sent broadcast", "type", typ, "sessionId", sessionId)
}
