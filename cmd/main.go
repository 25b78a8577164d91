package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agenthub/internal/admin"
	"agenthub/internal/api"
	"agenthub/internal/auth"
	"agenthub/internal/completion"
	"agenthub/internal/history"
	"agenthub/internal/middleware"
	"agenthub/internal/quota"
	"agenthub/internal/search"
	"agenthub/internal/session"
	"agenthub/internal/users"
	"agenthub/internal/voice"
	"agenthub/pkg/config"
	"agenthub/pkg/db"

	"github.com/sirupsen/logrus"
)

func main() {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfg := config.LoadConfig()

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logrus.Fatalf("Ошибка при подключении к базе данных: %v", err)
	}
	defer database.Close()

	userRepo := users.NewRepository(database)
	userService := users.NewService(userRepo)

	quotaRepo := quota.NewRepository(database)
	quotaService := quota.NewService(quotaRepo, userService)

	historyRepo := history.NewRepository(database)
	historyService := history.NewService(historyRepo)

	searchClient := search.NewClient(cfg.GoogleSearchKey, cfg.GoogleSearchEngineID, cfg.GoogleMapsKey)
	completionService := completion.NewService(cfg, searchClient)
	voiceService := voice.NewService(cfg)

	sessionManager := session.NewManager(historyService)
	sendService := session.NewService(quotaService, completionService, historyService)

	adminService := admin.NewService(userService, quotaRepo, historyRepo)

	apiHandler := api.NewHandler(
		userService,
		quotaService,
		historyService,
		voiceService,
		adminService,
		sessionManager,
		sendService,
		cfg.JWTSigningKey,
	)

	mux := http.NewServeMux()

	mux.Handle("/api/auth/register", middleware.CORSMiddleware(http.HandlerFunc(apiHandler.RegisterHandler)))
	mux.Handle("/api/auth/login", middleware.CORSMiddleware(http.HandlerFunc(apiHandler.LoginHandler)))
	mux.Handle("/api/agents", middleware.CORSMiddleware(http.HandlerFunc(apiHandler.ListAgentsHandler)))

	chatHandler := http.HandlerFunc(apiHandler.ChatHandler)
	mux.Handle("/api/chat", middleware.CORSMiddleware(auth.JWTMiddleware(chatHandler, cfg.JWTSigningKey)))

	quotaHandler := http.HandlerFunc(apiHandler.QuotaCheckHandler)
	mux.Handle("/api/quota/check", middleware.CORSMiddleware(auth.JWTMiddleware(quotaHandler, cfg.JWTSigningKey)))

	mux.Handle("/api/history", middleware.CORSMiddleware(auth.JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandler.GetHistoryHandler(w, r)
			return
		}
		apiHandler.SaveHistoryHandler(w, r)
	}), cfg.JWTSigningKey)))

	sessionTurnsHandler := http.HandlerFunc(apiHandler.SessionTurnsHandler)
	mux.Handle("/api/session", middleware.CORSMiddleware(auth.JWTMiddleware(sessionTurnsHandler, cfg.JWTSigningKey)))

	clearSessionHandler := http.HandlerFunc(apiHandler.ClearSessionHandler)
	mux.Handle("/api/session/clear", middleware.CORSMiddleware(auth.JWTMiddleware(clearSessionHandler, cfg.JWTSigningKey)))

	closeSessionHandler := http.HandlerFunc(apiHandler.CloseSessionHandler)
	mux.Handle("/api/session/close", middleware.CORSMiddleware(auth.JWTMiddleware(closeSessionHandler, cfg.JWTSigningKey)))

	upgradePlanHandler := http.HandlerFunc(apiHandler.UpgradePlanHandler)
	mux.Handle("/api/plan/upgrade", middleware.CORSMiddleware(auth.JWTMiddleware(upgradePlanHandler, cfg.JWTSigningKey)))

	adminUsersHandler := http.HandlerFunc(apiHandler.AdminUsersHandler)
	mux.Handle("/api/admin/users", middleware.CORSMiddleware(auth.JWTMiddleware(adminUsersHandler, cfg.JWTSigningKey)))

	adminStatsHandler := http.HandlerFunc(apiHandler.AdminStatsHandler)
	mux.Handle("/api/admin/stats", middleware.CORSMiddleware(auth.JWTMiddleware(adminStatsHandler, cfg.JWTSigningKey)))

	adminResetQuotaHandler := http.HandlerFunc(apiHandler.AdminResetQuotaHandler)
	mux.Handle("/api/admin/reset-quota", middleware.CORSMiddleware(auth.JWTMiddleware(adminResetQuotaHandler, cfg.JWTSigningKey)))

	transcribeHandler := http.HandlerFunc(apiHandler.TranscribeHandler)
	mux.Handle("/api/voice/transcribe", middleware.CORSMiddleware(auth.JWTMiddleware(transcribeHandler, cfg.JWTSigningKey)))

	synthesizeHandler := http.HandlerFunc(apiHandler.SynthesizeHandler)
	mux.Handle("/api/voice/tts", middleware.CORSMiddleware(auth.JWTMiddleware(synthesizeHandler, cfg.JWTSigningKey)))

	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: mux,
	}

	go func() {
		logrus.Infof("Сервер запущен на порту %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Ошибка при запуске сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Завершение работы сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Ошибка при остановке сервера: %v", err)
	}

	logrus.Info("Сервер остановлен")
}
