// Package api exposes the HTTP surface: dog CRUD, interactions and uploads.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shelterpaws/waggle/internal/blobstore"
	"github.com/shelterpaws/waggle/internal/config"
	"github.com/shelterpaws/waggle/internal/intake"
	"github.com/shelterpaws/waggle/internal/model"
	"github.com/shelterpaws/waggle/internal/pipeline"
	"github.com/shelterpaws/waggle/internal/queue"
	"github.com/shelterpaws/waggle/internal/repository"
)

// DogStore is the record-store surface the handlers depend on.
type DogStore interface {
	Create(ctx context.Context, dog *model.Dog) error
	Get(ctx context.Context, shelterID, dogID string) (*model.Dog, error)
	List(ctx context.Context, f repository.Filter) ([]model.Dog, error)
	Update(ctx context.Context, dog *model.Dog) error
	Delete(ctx context.Context, shelterID, dogID string) ([]model.ImageRecord, error)
}

// InteractionStore records and lists wag/growl reactions.
type InteractionStore interface {
	Create(ctx context.Context, in *model.Interaction) error
	ListByUser(ctx context.Context, userID string) ([]model.Interaction, error)
}

// Enqueuer hands intake objects to the pipeline worker.
type Enqueuer interface {
	EnqueueImageProcess(ctx context.Context, payload queue.ImageProcessPayload) error
}

// Server exposes HTTP endpoints for listings, interactions and uploads.
type Server struct {
	cfg          *config.Config
	log          *zap.Logger
	dogs         DogStore
	interactions InteractionStore
	uploads      *intake.Service
	gen          *pipeline.Generator
	store        blobstore.ObjectStore
	queue        Enqueuer
	validate     *validator.Validate
	server       *http.Server
	once         sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, log *zap.Logger, dogs DogStore, interactions InteractionStore,
	uploads *intake.Service, gen *pipeline.Generator, store blobstore.ObjectStore, q Enqueuer) *Server {
	return &Server{
		cfg:          cfg,
		log:          log,
		dogs:         dogs,
		interactions: interactions,
		uploads:      uploads,
		gen:          gen,
		store:        store,
		queue:        q,
		validate:     validator.New(),
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: s.Handler(),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", zap.String("address", s.cfg.Address))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/dogs", s.handleDogs)
	mux.HandleFunc("/dogs/", s.handleDogRoute)
	mux.HandleFunc("/interactions", s.handleInteractions)
	mux.HandleFunc("/uploads", s.handleUploads)
	mux.HandleFunc("/uploads/presign", s.handleUploadPresign)
	mux.HandleFunc("/uploads/complete", s.handleUploadComplete)
	return corsMiddleware(s.loggingMiddleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeValid decodes the JSON body into dst and runs struct validation.
func (s *Server) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON in request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field: " + verrs[0].Field())
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}
