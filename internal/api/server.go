package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmiiot/factoryline-core/internal/infrastructure/config"
	"github.com/mmiiot/factoryline-core/internal/infrastructure/database"
	"github.com/mmiiot/factoryline-core/internal/infrastructure/logging"
	"github.com/mmiiot/factoryline-core/internal/infrastructure/mqtt"
	"github.com/mmiiot/factoryline-core/internal/production"
	"github.com/mmiiot/factoryline-core/internal/simulation"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// simulationEventChannel is the WebSocket channel simulation events are
// broadcast on.
const simulationEventChannel = "simulation.event"

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Driver   *simulation.Driver
	EventLog *simulation.EventLog
	Repo     production.Repository
	DB       *database.DB // optional: enables database health reporting
	MQTT     *mqtt.Client // optional: relays events and accepts commands over MQTT
	Version  string
}

// Server is the HTTP API server for Factoryline Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub, and
// owns the fan-out of simulation events to connected clients.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	driver   *simulation.Driver
	eventLog *simulation.EventLog
	repo     production.Repository
	db       *database.DB
	mqtt     *mqtt.Client
	version  string
	server   *http.Server
	hub      *Hub
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, driver, event log, repo)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Driver == nil {
		return nil, fmt.Errorf("simulation driver is required")
	}
	if deps.EventLog == nil {
		return nil, fmt.Errorf("event log is required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("production repository is required")
	}
	// MQTT and DB are optional - the simulation runs without either.

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		driver:   deps.Driver,
		eventLog: deps.EventLog,
		repo:     deps.Repo,
		db:       deps.DB,
		mqtt:     deps.MQTT,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, registers the event log
// notifier for real-time fan-out, subscribes to MQTT control commands, and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Every appended event fans out to WebSocket subscribers and, when an
	// MQTT client is configured, onto the broker.
	s.eventLog.SetNotifier(s.relayEvent)

	if err := s.subscribeCommands(); err != nil {
		s.logger.Warn("failed to subscribe to MQTT simulation commands", "error", err)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// relayEvent is the event log notifier. It broadcasts the event to
// WebSocket subscribers and publishes it to the MQTT event topic.
func (s *Server) relayEvent(event simulation.Event) error {
	if s.hub != nil {
		s.hub.Broadcast(simulationEventChannel, event)
	}

	if s.mqtt != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshaling event for MQTT: %w", err)
		}
		topics := mqtt.Topics{}
		if err := s.mqtt.Publish(topics.SimulationEvent(), payload, 1, false); err != nil {
			return fmt.Errorf("publishing event to MQTT: %w", err)
		}
	}
	return nil
}

// mqttCommand is the payload accepted on the simulation command topic.
type mqttCommand struct {
	Command string `json:"command"`
}

// subscribeCommands subscribes to the MQTT simulation command topic so the
// line can be started and stopped from the broker as well as over HTTP.
func (s *Server) subscribeCommands() error {
	if s.mqtt == nil {
		return nil // MQTT not configured; HTTP control only
	}

	topics := mqtt.Topics{}
	topic := topics.SimulationCommand()
	s.logger.Info("subscribing to simulation commands", "topic", topic)

	return s.mqtt.Subscribe(topic, 1, func(t string, payload []byte) error {
		var cmd mqttCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			s.logger.Warn("ignoring malformed simulation command", "topic", t, "error", err)
			return nil
		}

		switch cmd.Command {
		case "start":
			if s.driver.Start() {
				s.logger.Info("simulation started via MQTT command")
				s.publishDriverStatus()
			}
		case "stop":
			if s.driver.Stop() {
				s.logger.Info("simulation stopped via MQTT command")
				s.publishDriverStatus()
			}
		default:
			s.logger.Warn("unknown simulation command", "command", cmd.Command)
		}
		return nil
	})
}

// publishDriverStatus publishes the driver status retained so late MQTT
// subscribers see whether the line is running.
func (s *Server) publishDriverStatus() {
	if s.mqtt == nil {
		return
	}
	payload, err := json.Marshal(s.driver.Status())
	if err != nil {
		return
	}
	topics := mqtt.Topics{}
	if err := s.mqtt.PublishRetained(topics.SimulationStatus(), payload); err != nil {
		s.logger.Warn("failed to publish driver status", "error", err)
	}
}
