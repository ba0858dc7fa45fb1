package server

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"cartshare/internal/database"
	"cartshare/internal/lists"
	"cartshare/internal/localstore"
	"cartshare/internal/realtime"
	"cartshare/internal/storage"
	"cartshare/internal/workspace"
)

type Server struct {
	port       int
	log        *slog.Logger
	db         database.Service
	local      *localstore.Store
	s3Service  *storage.S3Service
	resolver   *workspace.Resolver
	reconciler *workspace.Reconciler
	lists      *lists.Service
	hub        *realtime.Hub
}

func (s *Server) GetDB() database.Service {
	return s.db
}

func (s *Server) GetResolver() *workspace.Resolver {
	return s.resolver
}

func (s *Server) GetReconciler() *workspace.Reconciler {
	return s.reconciler
}

func (s *Server) GetLists() *lists.Service {
	return s.lists
}

func (s *Server) GetS3Service() *storage.S3Service {
	return s.s3Service
}

func (s *Server) GetHub() *realtime.Hub {
	return s.hub
}

// CloseLocal closes the device-local store on shutdown.
func (s *Server) CloseLocal() error {
	return s.local.Close()
}

func NewServer() (*Server, *http.Server) {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	localDir := os.Getenv("LOCAL_STORE_DIR")
	if localDir == "" {
		localDir = "data/localstore"
	}
	local, err := localstore.Open(localDir, logger)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}

	// Photo storage is optional; everything else works without it.
	var s3Service *storage.S3Service
	if os.Getenv("AWS_S3_BUCKET") != "" {
		s3Service, err = storage.NewS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
	}

	db := database.New()
	resolver := workspace.NewResolver(db, local, logger)

	newServer := &Server{
		port:       port,
		log:        logger,
		db:         db,
		local:      local,
		s3Service:  s3Service,
		resolver:   resolver,
		reconciler: workspace.NewReconciler(db, resolver, logger),
		lists:      lists.NewService(db, logger),
		hub:        realtime.NewHub(logger),
	}

	// WriteTimeout stays 0 so /events streams can remain open.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", newServer.port),
		Handler:     newServer.RegisterRoutes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
	}

	return newServer, httpServer
}
