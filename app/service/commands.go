package service

import (
	"fmt"

	"marcel.works/nookstube-go/app/model"
)

// Command names accepted on the command topic and the websocket gateway.
const (
	CmdCreateSession = "CREATE_SESSION"
	CmdGetSessions   = "GET_SESSIONS"
	CmdJoinSession   = "JOIN_SESSION"
	CmdSelectVideo   = "SELECT_VIDEO"
	CmdPlay          = "PLAY"
	CmdPause         = "PAUSE"
	CmdSeek          = "SEEK"
	CmdSyncTime      = "SYNC_TIME"
)

// applyCommand validates the command's token, translates it into a partial
// session update and applies it to the store. It returns the merged session
// document so transports can broadcast it. Last write wins: there is no
// arbitration between concurrent commands beyond store order.
func applyCommand(store SessionStore, auth *AuthService, command model.Command) (model.Session, error) {
	user, err := auth.Verify(command.Token)
	if err != nil {
		return model.Session{}, err
	}

	var update model.SessionUpdate
	switch command.Cmd {
	case CmdSelectVideo:
		update = model.SessionUpdate{
			CurrentVideoId: &command.VideoId,
			UserId:         &user.Id,
		}
	case CmdPlay, CmdPause, CmdSeek:
		action := actionFor(command.Cmd)
		update = model.SessionUpdate{
			Time:   &command.Time,
			Action: &action,
			UserId: &user.Id,
		}
	case CmdSyncTime:
		update = model.SessionUpdate{
			Time:   &command.Time,
			UserId: &user.Id,
		}
	default:
		return model.Session{}, fmt.Errorf("unknown command %q", command.Cmd)
	}

	if err := store.Update(command.SessionId, update); err != nil {
		return model.Session{}, err
	}
	return store.Get(command.SessionId)
}

func actionFor(cmd string) model.PlayerAction {
	switch cmd {
	case CmdPlay:
		return model.ActionPlay
	case CmdPause:
		return model.ActionPause
	case CmdSeek:
		return model.ActionSeek
	default:
		return model.ActionNone
	}
}
