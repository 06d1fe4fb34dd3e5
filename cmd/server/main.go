package main

import (
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/pairsync/pairsync/internal/api"
	"github.com/pairsync/pairsync/internal/config"
	"github.com/pairsync/pairsync/internal/db"
	"github.com/pairsync/pairsync/internal/middleware"
	"github.com/pairsync/pairsync/internal/services"
	"github.com/pairsync/pairsync/internal/utils"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	commit := utils.SafeEnv("PAIRSYNC_COMMIT", "dev")
	buildTime := utils.SafeEnv("PAIRSYNC_BUILD_TIME", "")

	var store api.Store
	if cfg.SQLitePath != "" {
		store, err = db.NewSQLiteStore(cfg.SQLitePath, cfg.MigrationsDir, logger)
		if err != nil {
			logger.Fatal("open sqlite store", zap.Error(err))
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
	} else {
		store = api.NewMemoryStore()
		logger.Warn("no sqlite path configured, state is in-memory only")
	}

	keyring := services.NewKeyring(cfg.KeyMode(), cfg.KDFIterations)
	router := api.NewRouter(store, api.Options{
		DailyQuestionCount: cfg.DailyQuestionCount,
		Keyring:            keyring,
		Logger:             logger,
	})

	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "PairSync API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Static frontend, when bundled into the image.
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	handler := middleware.CORS(
		middleware.SecureHeaders(
			middleware.WithAuth(
				middleware.RequestLogger(logger, mux))))

	logger.Info("pairsync server listening",
		zap.String("addr", cfg.Addr),
		zap.String("encryption_mode", cfg.EncryptionMode))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
