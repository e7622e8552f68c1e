package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vectorpad/vectorpad/internal/auth"
	"github.com/vectorpad/vectorpad/internal/collab"
	"github.com/vectorpad/vectorpad/internal/config"
	"github.com/vectorpad/vectorpad/internal/document"
	"github.com/vectorpad/vectorpad/internal/export"
	mw "github.com/vectorpad/vectorpad/internal/middleware"
	"github.com/vectorpad/vectorpad/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(st, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	docService := document.NewService(st)
	docHandler := document.NewHandler(docService)

	hub := collab.NewHub(docService.LoadForSession, docService.SaveSession)
	go hub.Run(ctx)

	exportHandler := export.NewHandler(docService)

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	api.HandleFunc("/documents", docHandler.List).Methods("GET")
	api.HandleFunc("/documents", docHandler.Create).Methods("POST")
	api.HandleFunc("/documents/{documentId}", docHandler.Get).Methods("GET")
	api.HandleFunc("/documents/{documentId}", docHandler.Rename).Methods("PATCH")
	api.HandleFunc("/documents/{documentId}", docHandler.Delete).Methods("DELETE")
	api.HandleFunc("/documents/{documentId}/invite", docHandler.Invite).Methods("POST")
	api.HandleFunc("/documents/{documentId}/members", docHandler.ListMembers).Methods("GET")
	api.HandleFunc("/documents/{documentId}/members/{userId}", docHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/documents/{documentId}/scene/latest", docHandler.GetLatestScene).Methods("GET")
	api.HandleFunc("/documents/{documentId}/export/svg", exportHandler.ExportSVG).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/document/{documentId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, st, cfg.OriginHosts())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: flush every open room before closing listeners.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		hub.FlushAll(flushCtx)
		flushCancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, st *store.Store, originPatterns []string) {
	documentID := mux.Vars(r)["documentId"]

	token := auth.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := st.GetMember(r.Context(), documentID, userID); err != nil {
		http.Error(w, "not a document member", http.StatusForbidden)
		return
	}

	user, err := authSvc.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.NewString()
	client := collab.NewClient(hub, conn, userID, user.DisplayName, documentID, clientID)
	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
