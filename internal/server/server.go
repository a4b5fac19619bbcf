package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/GingerImpasto/orangechat/internal/auth"
	"github.com/GingerImpasto/orangechat/internal/hub"
	"github.com/GingerImpasto/orangechat/internal/server/middleware"
	"github.com/GingerImpasto/orangechat/internal/store"
	"github.com/GingerImpasto/orangechat/pkg/config"
	"github.com/GingerImpasto/orangechat/pkg/transport"
)

type App struct {
	logger *slog.Logger
	hub    *hub.Hub
	store  *store.Store
	issuer *auth.Issuer
	wg     sync.WaitGroup
	http   *http.Server
	config *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, st *store.Store) *App {
	app := &App{
		logger: logger,
		hub:    hub.New(logger),
		store:  st,
		issuer: auth.NewIssuer(cfg.Server.Auth.JWTSecret, cfg.Server.Auth.TokenTTL),
		config: cfg,
		ctx:    rootCtx,
	}

	validator := auth.NewValidator(cfg.Server.Auth.JWTSecret)
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(logger),
			middleware.NewAuthMiddleware(logger, validator),
		)
	}
	open := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(logger),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", authed(app.upgradeHandler))
	mux.Handle("POST /api/signup", open(app.handleSignup))
	mux.Handle("POST /api/login", open(app.handleLogin))
	mux.Handle("GET /api/friends", authed(app.handleListFriends))
	mux.Handle("POST /api/friends", authed(app.handleAddFriend))
	mux.Handle("DELETE /api/friends/{friendId}", authed(app.handleRemoveFriend))
	mux.Handle("GET /api/messages/{peerId}", authed(app.handleConversation))
	mux.Handle("POST /api/messages", authed(app.handleSaveMessage))

	app.http = &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
		BaseContext: func(l net.Listener) context.Context {
			return app.ctx
		},
	}
	return app
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

// upgradeHandler runs after the auth middleware: the user is known, the
// friend snapshot is resolved, and only then does the transport start
// accepting relay events.
func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("userID", reqMeta.UserID),
	)

	friends, err := a.store.FriendIDs(reqMeta.UserID)
	if err != nil {
		connLogger.Error("Failed to resolve friend snapshot", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		connLogger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	// The session is created before Run, so the closures below never
	// observe a nil session.
	var sess *hub.Session
	conn := transport.New(
		r.Context(),
		&a.wg,
		wsConn,
		transport.Config{
			ReadTimeout:  a.config.Transport.ReadTimeout,
			WriteTimeout: a.config.Transport.WriteTimeout,
		},
		func(ctx context.Context, connID uuid.UUID, msg []byte) {
			a.hub.HandleMessage(sess, msg)
		},
		func(connID uuid.UUID, err error) {
			a.hub.Disconnect(sess)
		},
		a.logger,
	)
	sess = hub.NewSession(reqMeta.UserID, conn, friends)

	a.hub.Connect(sess)
	conn.Run()
	<-conn.Done()
}

// Shutdown is the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")

	// Close the websockets first: their upgrade handlers block until
	// the connection is torn down, and http.Shutdown waits for them.
	a.logger.Info("Closing all active connections...")
	for _, sess := range a.hub.Registry().All() {
		sess.Handle.Close(errors.New("graceful shutdown"))
	}
	a.wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("Server shut down gracefully.")
	return nil
}
