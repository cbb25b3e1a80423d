package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/navalclash/backend/db/sqlc"
	"github.com/navalclash/backend/imagegen"
	mb "github.com/navalclash/backend/models/battleship"
	mc "github.com/navalclash/backend/models/connection"
)

const (
	StageProd = "prod"
	StageDev  = "dev"
)

var defaultPort = "8000"

type Server struct {
	port           string
	stage          string
	Coordinator    *Coordinator
	SessionManager mc.SessionManager
	rp             RequestProcessor
}

type Option func(*Server) error

// NewServer assembles the full stack: session manager, match
// manager, queue, coordinator and the websocket request processor.
func NewServer(analytics *sqlc.AnalyticsManager, images imagegen.Provider, optFuncs ...Option) *Server {
	var server Server
	for _, opt := range optFuncs {
		if err := opt(&server); err != nil {
			panic(err)
		}
	}
	if server.port == "" {
		server.port = defaultPort
	}

	sessionManager := mc.NewNavalSessionManager()
	server.SessionManager = sessionManager
	server.Coordinator = NewCoordinator(
		sessionManager,
		mb.NewNavalMatchManager(),
		mb.NewQueue(),
		analytics,
		images,
	)
	server.rp = NewRequestProcessor(sessionManager, server.Coordinator)

	return &server
}

func WithPort(port string) Option {
	return func(s *Server) error {
		s.port = port
		return nil
	}
}

func WithStage(stage string) Option {
	return func(s *Server) error {
		if stage != StageProd && stage != StageDev {
			return fmt.Errorf("invalid type of development stage: %s", stage)
		}
		s.stage = stage
		return nil
	}
}

// Run starts the background loops and serves the websocket route.
func (s *Server) Run() error {
	go s.Coordinator.ManageMatchTermination()
	go s.SessionManager.CleanupPeriodically()

	mux := http.NewServeMux()
	mux.Handle("GET /battleship", s.rp)

	log.Printf("Listening to port %s\n", s.port)
	return http.ListenAndServe("0.0.0.0:"+s.port, mux)
}
