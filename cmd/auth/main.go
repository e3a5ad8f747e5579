package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/AlibekovAA/sessionauth/internal/auth/http"
	"github.com/AlibekovAA/sessionauth/internal/common/bootstrap"
	commonhttp "github.com/AlibekovAA/sessionauth/internal/common/http"
	srv "github.com/AlibekovAA/sessionauth/internal/common/server"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auth: %v\n", err)
		os.Exit(1)
	}
	log := app.Log

	var health commonhttp.Pinger
	if app.Pool != nil {
		health = app.Pool
	}

	mux := http.NewServeMux()
	mux.Handle("/", authhttp.NewHandler(app.AuthService, app.Config, health, log))
	mux.Handle("/metrics", promhttp.Handler())

	server := srv.NewServer(srv.DefaultServerConfig(app.Config.HTTPPort), commonhttp.BuildBaseHandler(log, mux))

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: closing storage")
			return app.Close(ctx)
		},
	}

	if err := srv.StartWithGracefulShutdownAndHooks(server, log, "auth", shutdownHooks); err != nil {
		log.Fatalf("auth service stopped with error: %v", err)
	}
}
