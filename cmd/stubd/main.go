package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"viveo/internal/infra"
	"viveo/internal/stubserver"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	stub := stubserver.New(stubserver.Options{
		InitialCredits: cfg.StubInitialCredits,
		CostPerSecond:  cfg.StubCostPerSecond,
		AdvanceAfter:   cfg.StubAdvanceAfter,
		RequireToken:   cfg.APIToken,
		Logger:         &logger,
	})

	server := infra.NewHTTPServer(cfg.StubPort, stub.Router())

	go func() {
		logger.Info().Msgf("stub backend listening on :%s", cfg.StubPort)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("stub backend stopped")
}
