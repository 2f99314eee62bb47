// internal/app/bootstrap/routes.go
package bootstrap

import (
	"encoding/hex"
	"net/http"

	errorsfeature "github.com/dispoapp/dispo/internal/app/features/errors"
	eventsfeature "github.com/dispoapp/dispo/internal/app/features/events"
	feedfeature "github.com/dispoapp/dispo/internal/app/features/feed"
	groupsfeature "github.com/dispoapp/dispo/internal/app/features/groups"
	healthfeature "github.com/dispoapp/dispo/internal/app/features/health"
	loginfeature "github.com/dispoapp/dispo/internal/app/features/login"
	logoutfeature "github.com/dispoapp/dispo/internal/app/features/logout"
	notificationsfeature "github.com/dispoapp/dispo/internal/app/features/notifications"
	usersfeature "github.com/dispoapp/dispo/internal/app/features/users"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/storage"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed. It builds the session manager and blob
// storage, then mounts the JSON API under /api plus the health check
// and the stored-file server.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	sessionKey := appCfg.SessionKey
	if sessionKey == "" {
		// Dev convenience: a per-process key. Every restart signs
		// everyone out. ValidateConfig rejects this in production.
		sessionKey = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		logger.Warn("session_key not set; generated a per-process key")
	}

	sessionMgr, err := auth.NewSessionManager(sessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	blobs, err := storage.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL, logger)
	if err != nil {
		logger.Error("blob storage init failed", zap.Error(err))
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	db := deps.DispoMongoDatabase

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.DispoMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Uploaded event images and photos
	r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))

	r.Route("/api", func(api chi.Router) {
		api.Mount("/login", loginfeature.Routes(loginfeature.NewHandler(db, sessionMgr, errLog, logger)))
		api.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, logger)))

		api.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(db, errLog, logger), sessionMgr))
		api.Mount("/groups", groupsfeature.Routes(groupsfeature.NewHandler(db, errLog, logger), sessionMgr))
		api.Mount("/events", eventsfeature.Routes(eventsfeature.NewHandler(db, blobs, errLog, logger), sessionMgr))
		api.Mount("/feed", feedfeature.Routes(feedfeature.NewHandler(db, errLog, logger), sessionMgr))
		api.Mount("/notifications", notificationsfeature.Routes(notificationsfeature.NewHandler(db, errLog, logger), sessionMgr))
	})

	return r, nil
}
