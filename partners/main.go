package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"partners/partners/config"
	"partners/partners/controllers"
	"partners/partners/middlewares"
	"partners/partners/routes"
	"partners/partners/services/knowledge"
	"partners/partners/services/llm"
	"partners/partners/sources/psql"
	"partners/partners/sources/psql/dao"
	"partners/partners/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables, err := loadTables(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("knowledge table load error", zap.Error(err))
		os.Exit(1)
	}
	directCount, cardCount := tables.Size()
	logging.AppLogger.Info("knowledge tables loaded",
		zap.Int("direct", directCount), zap.Int("cards", cardCount))

	ai, err := llm.NewStreamer(cfg)
	if err != nil {
		logging.ErrorLogger.Error("ai backend init error", zap.Error(err))
		os.Exit(1)
	}

	chatCtrl := controllers.NewChatController(tables, ai, cfg)
	r := newRouter(cfg, chatCtrl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("gateway listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}

func newRouter(cfg config.Config, chatCtrl *controllers.ChatController) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Not found", http.StatusNotFound)
		})
		api.Mount("/health", routes.HealthRoutes(controllers.NewHealthController()))
		api.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg))
	})
	r.Mount("/proxy", routes.ProxyRoutes(controllers.NewProxyController()))

	// Everything else is the front end.
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	return r
}

// loadTables builds the immutable knowledge tables: built-ins, then the YAML
// file when configured, then DB rows merged on top. All of it happens once;
// nothing mutates the tables afterwards.
func loadTables(ctx context.Context, cfg config.Config) (*knowledge.Tables, error) {
	tables := knowledge.Default()

	if cfg.KnowledgeFile != "" {
		t, err := knowledge.LoadFile(cfg.KnowledgeFile)
		if err != nil {
			return nil, err
		}
		tables = t
	}

	if cfg.DBHost != "" {
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		direct, cards, err := dao.NewKnowledgeDAO(db.DB).LoadTables(ctx)
		if err != nil {
			return nil, err
		}
		tables = tables.Merge(direct, cards)
	}

	return tables, nil
}
