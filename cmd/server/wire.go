//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"worry_solver/internal/app"
	"worry_solver/internal/codegen"
	"worry_solver/internal/config"
	"worry_solver/internal/http"
	"worry_solver/internal/http/controller"
	"worry_solver/internal/logging"
	"worry_solver/internal/metrics"
	"worry_solver/internal/queue/rabbitmq"
	"worry_solver/internal/recordstore"
	"worry_solver/internal/service/worry"
	"worry_solver/internal/sse"
	"worry_solver/internal/store"
)

func InitializeApp() (*app.App, error) {
	wire.Build(
		config.New,
		logging.New,
		store.NewStore,
		recordstore.New,
		wire.Bind(new(worry.RecordStore), new(*recordstore.Store)),
		wire.Bind(new(codegen.KeyChecker), new(*recordstore.Store)),
		codegen.NewFromConfig,
		wire.Bind(new(worry.CodeGenerator), new(*codegen.Generator)),
		metrics.New,
		sse.NewHub,
		worry.NewService,
		controller.NewHandler,
		http.NewRouter,
		rabbitmq.NewConsumer,
		rabbitmq.NewPublisher,
		app.NewApp,
	)
	return &app.App{}, nil
}
