package coord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach-hq/src/lib"
	"outreach-hq/src/models"
	"outreach-hq/src/platform"
	"outreach-hq/src/services"
	"outreach-hq/src/storage"
)

// Server wires the coordinator runtime and its HTTP handlers.
type Server struct {
	cfg        lib.Config
	logger     *slog.Logger
	metrics    *lib.Metrics
	db         *pgxpool.Pool
	httpServer *http.Server
}

func NewServer(ctx context.Context, cfg lib.Config) (*Server, error) {
	logger := lib.NewLogger(cfg.LogLevel, "coordinator")
	metrics := lib.NewMetrics(
		"events_created_total", "events_started_total", "events_ended_total",
		"groups_created_total", "members_added_total", "stats_updated_total",
		"role_sync_failures_total",
	)

	db, err := storage.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	eventRepo := storage.NewEventRepo(db)
	groupRepo := storage.NewGroupRepo(db)
	userRepo := storage.NewUserRepo(db)

	if err := eventRepo.SeedEventTypes(ctx, []string{models.EventTypeOutreach}); err != nil {
		db.Close()
		return nil, err
	}

	platformClient := platform.NewClient(cfg)
	campaignService := services.NewCampaignService(eventRepo, userRepo, platformClient, metrics)
	ledgerService := services.NewLedgerService(
		groupRepo, eventRepo, userRepo, platformClient, metrics,
		cfg.CoordinatorRoleIDs, cfg.GroupRolePrefix,
	)

	router := mux.NewRouter()
	RegisterEventRoutes(router, EventRoutes{
		Campaign: campaignService,
		Logger:   logger,
	})
	RegisterGroupRoutes(router, GroupRoutes{
		Ledger: ledgerService,
		Logger: logger,
	})
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(metrics.Snapshot())
	}).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		db:         db,
		httpServer: httpServer,
	}, nil
}

func (s *Server) Start() error {
	s.logger.Info("coordinator starting", "addr", s.cfg.HTTPAddr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	defer s.db.Close()
	return s.httpServer.Shutdown(ctx)
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	files := make([]string, 0)
	if err := filepath.WalkDir("src/storage/migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".sql" {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk migration files: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", path, err)
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", path, err)
		}
	}
	return nil
}
