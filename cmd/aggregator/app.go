package main

import (
	"github.com/to404hanga/online_judge_aggregator/event"
	"github.com/to404hanga/online_judge_aggregator/web"
)

type App struct {
	server   *web.GinServer
	consumer *event.SubmissionConsumer
}

func newApp(server *web.GinServer, consumer *event.SubmissionConsumer) *App {
	return &App{
		server:   server,
		consumer: consumer,
	}
}

func (a *App) Start() error {
	a.consumer.Start()
	return a.server.Start()
}
