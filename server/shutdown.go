// Package server manages the lifecycle of the vault ledger HTTP server,
// including signal-driven graceful shutdown and shutdown hooks.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/lucrumlabs/vault-ledger/log"
)

// ErrNoServerConfigured indicates no HTTP server was configured for the manager.
var ErrNoServerConfigured = errors.New("no server configured: use WithHTTPServer()")

// ShutdownHook runs during graceful shutdown, after the HTTP server has
// stopped accepting requests. Hooks run in registration order; a hook error
// is logged and does not stop later hooks.
type ShutdownHook func(ctx context.Context) error

// ServerManager handles startup and graceful shutdown of the HTTP server.
type ServerManager struct {
	httpServer         *fiber.App
	logger             log.Logger
	httpAddress        string
	hooks              []ShutdownHook
	serversStarted     chan struct{}
	serversStartedOnce sync.Once
	shutdownChan       <-chan struct{}
	shutdownOnce       sync.Once
	startupErrors      chan error
}

// NewServerManager creates a new instance of ServerManager. If logger is nil,
// a no-op logger is used.
func NewServerManager(logger log.Logger) *ServerManager {
	if logger == nil {
		logger = log.NewNop()
	}

	return &ServerManager{
		logger:         logger,
		serversStarted: make(chan struct{}),
		startupErrors:  make(chan error, 1),
	}
}

// WithHTTPServer configures the HTTP server for the ServerManager.
func (sm *ServerManager) WithHTTPServer(app *fiber.App, address string) *ServerManager {
	sm.httpServer = app
	sm.httpAddress = address

	return sm
}

// WithShutdownHook registers a hook to run during graceful shutdown.
func (sm *ServerManager) WithShutdownHook(hook ShutdownHook) *ServerManager {
	sm.hooks = append(sm.hooks, hook)

	return sm
}

// WithShutdownChannel configures a custom shutdown channel for the
// ServerManager. This allows tests to trigger shutdown deterministically
// instead of relying on OS signals.
func (sm *ServerManager) WithShutdownChannel(ch <-chan struct{}) *ServerManager {
	sm.shutdownChan = ch

	return sm
}

// ServersStarted returns a channel that is closed once the server goroutine
// has been launched. It signals launch, not that the socket is bound.
func (sm *ServerManager) ServersStarted() <-chan struct{} {
	return sm.serversStarted
}

// StartWithGracefulShutdown validates configuration and starts the server.
// It blocks until a termination signal arrives, the shutdown channel is
// closed, or server startup fails, then runs the shutdown sequence.
func (sm *ServerManager) StartWithGracefulShutdown() error {
	if sm.httpServer == nil {
		return ErrNoServerConfigured
	}

	sm.startServer()
	sm.handleShutdown()

	return nil
}

func (sm *ServerManager) startServer() {
	go func() {
		sm.logInfof("Starting HTTP server on %s", sm.httpAddress)

		if err := sm.httpServer.Listen(sm.httpAddress); err != nil {
			sm.logErrorf("HTTP server error: %v", err)

			select {
			case sm.startupErrors <- fmt.Errorf("HTTP server: %w", err):
			default:
			}
		}
	}()

	sm.serversStartedOnce.Do(func() {
		close(sm.serversStarted)
	})
}

// handleShutdown waits for a termination signal, shutdown channel close, or
// startup error, then executes the shutdown sequence.
func (sm *ServerManager) handleShutdown() {
	if sm.shutdownChan != nil {
		select {
		case <-sm.shutdownChan:
		case err := <-sm.startupErrors:
			sm.logErrorf("Server startup failed: %v", err)
		}
	} else {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		select {
		case <-c:
			signal.Stop(c)
		case err := <-sm.startupErrors:
			sm.logErrorf("Server startup failed: %v", err)
		}
	}

	sm.logInfo("Gracefully shutting down...")

	sm.executeShutdown()
}

// executeShutdown performs the shutdown operations in order. It is
// idempotent: only the first invocation executes the sequence.
func (sm *ServerManager) executeShutdown() {
	sm.shutdownOnce.Do(func() {
		if sm.httpServer != nil {
			sm.logInfo("Shutting down HTTP server...")

			if err := sm.httpServer.Shutdown(); err != nil {
				sm.logErrorf("Error during HTTP server shutdown: %v", err)
			}
		}

		for _, hook := range sm.hooks {
			if err := hook(context.Background()); err != nil {
				sm.logErrorf("Shutdown hook error: %v", err)
			}
		}

		if err := sm.logger.Sync(context.Background()); err != nil {
			sm.logErrorf("Failed to sync logger: %v", err)
		}

		sm.logInfo("Graceful shutdown completed")
	})
}

func (sm *ServerManager) logInfo(msg string) {
	sm.logger.Log(context.Background(), log.LevelInfo, msg)
}

func (sm *ServerManager) logInfof(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelInfo, fmt.Sprintf(format, args...))
}

func (sm *ServerManager) logErrorf(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelError, fmt.Sprintf(format, args...))
}
