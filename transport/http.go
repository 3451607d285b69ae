package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type HttpResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewHttp returns a configured gin engine instance
func NewHttp(cfg config.Configuration) *gin.Engine {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	ginEngine.RemoveExtraSlash = cfg.Server.ExtraSlash
	return ginEngine
}

// Group returns the router group every domain attaches its routes to
func Group(cfg config.Configuration, r *gin.Engine) *gin.RouterGroup {
	if cfg.Server.Prefix == "" {
		return &r.RouterGroup
	}
	return r.Group("/" + cfg.Server.Prefix)
}

// RunHttp runs the http server until ctx is cancelled and then shuts it down
// gracefully
func RunHttp(ctx context.Context, cfg config.Configuration, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:        resolveAddr(cfg.Server),
		Handler:     h,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server exiting")
	return nil
}

// Resolves address provided by http server
// configuration
func resolveAddr(cfg config.Server) string {
	port := strconv.Itoa(cfg.Port)
	if cfg.Host == ":" {
		return cfg.Host + port
	}
	return cfg.Host + ":" + port
}

// Retrieves request ip for logging purposes
func resolveIP(req *http.Request) string {
	real := req.Header.Get("X-Real-Ip")
	if len(real) > 0 {
		return real
	}
	forward := req.Header.Get("X-Forwarded-For")
	if len(forward) > 0 {
		return forward
	}
	return req.RemoteAddr
}
