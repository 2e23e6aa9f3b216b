package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

const shutdownTimeout = 30 * time.Second

// StartHttpServer serves until SIGINT or SIGTERM, then runs the shutdown hooks and
// stops the server, waiting at most 30 seconds for both.
func StartHttpServer(logger hclog.Logger, port int, defaultRouter http.Handler, shutdownHooks ...func(ctx context.Context)) error {
	// create a new server
	server := &http.Server{
		Addr:     fmt.Sprintf(":%d", port),                              // configure the bind address
		Handler:  defaultRouter,                                         // set the default handler
		ErrorLog: logger.StandardLogger(&hclog.StandardLoggerOptions{}), // set the logger for the server
	}

	// start the server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Starting server on port: %d", port))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// trap sigterm or interupt and gracefully shutdown the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)
	defer signal.Stop(c)

	// Block until a signal is received.
	select {
	case sig := <-c:
		logger.Info("Got signal:", "signal", sig)
	case err := <-serverErr:
		logger.Error("Error starting server", "error", err)
		return err
	}

	// gracefully shutdown the server, waiting max 30 seconds for current operations to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, hook := range shutdownHooks {
		hook(ctx)
	}
	return server.Shutdown(ctx)
}
