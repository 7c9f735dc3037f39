package main

import (
	"marcel.works/nookstube-go/app"
	"marcel.works/nookstube-go/app/service"
)

func main() {
	//dbService := &service.RethinkService{}
	dbService := &service.RedisService{}
	authService := &service.AuthService{}
	stompService := &service.StompService{DbService: dbService, Auth: authService}
	wsService := &service.WsService{DbService: dbService, Auth: authService}
	a := app.App{
		StompService: stompService,
		WsService:    wsService,
		AuthService:  authService,
		DbService:    dbService,
	}
	a.Start()
}
