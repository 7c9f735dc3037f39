package app

import (
	"go.uber.org/zap"

	"marcel.works/nookstube-go/app/service"
)

var (
	stop = make(chan bool)
)

type App struct {
	StompService *service.StompService
	WsService    *service.WsService
	AuthService  *service.AuthService
	DbService    service.SessionStore
}

func (a *App) Start() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	err := a.DbService.Connect()
	if err != nil {
		zap.S().Fatalw("could not connect to database", "error", err)
	}
	zap.S().Info("connected to database")

	err = a.AuthService.Connect()
	if err != nil {
		zap.S().Fatalw("could not set up auth", "error", err)
	}

	err = a.StompService.Connect()
	if err != nil {
		zap.S().Fatalw("could not connect to broker", "error", err)
	}
	zap.S().Info("connected to broker")

	go func() {
		if err := a.WsService.Start(); err != nil {
			zap.S().Fatalw("websocket gateway failed", "error", err)
		}
	}()

	zap.S().Info("waiting for commands ...")
	go a.StompService.ReceiveCommands()
	<-stop
	zap.S().Info("connection to broker terminated")
}
