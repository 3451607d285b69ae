package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"
	"go.uber.org/ratelimit"
	"gorm.io/gorm"
)

// RateLimiterMiddleware limits the number of operation
// per second
func RateLimiterMiddleware(rps int) gin.HandlerFunc {
	limit := ratelimit.New(rps)
	return func(c *gin.Context) {
		limit.Take()
	}
}

func SecurityMiddleware(cfg config.Configuration) gin.HandlerFunc {
	secureMiddleware := secure.New(cfg.Server.Security)
	ac := cfg.Server.AccessControl
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", ac.AllowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", fmt.Sprintf("%v", ac.AllowCredentials))
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join(ac.AllowHeaders, ", "))
		c.Writer.Header().Set("Access-Control-Allow-Methods", strings.Join(ac.AllowMethods, ", "))
		c.Writer.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", int(ac.MaxAge.Seconds())))
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		// For redirection avoid Header rewrite
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
		}
	}
}

// LoggerMiddleware writes one access log line per request
func LoggerMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := log.Info()
		if status >= http.StatusInternalServerError {
			evt = log.Error()
		} else if status >= http.StatusBadRequest {
			evt = log.Warn()
		}
		evt.Str("method", c.Request.Method).
			Str("path", RequestURL(c.Request)).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("ip", resolveIP(c.Request)).
			Msg("request")
	}
}

// RecoveryMiddleware turns panics into a 500 problem
func RecoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
		writeProblem(c, NewProblem(http.StatusInternalServerError, genericDetail))
	})
}

// ActorMiddleware records who is making the request so writes can be
// attributed in the audit log
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := persistence.Actor{
			IPAddress: resolveIP(c.Request),
			UserAgent: c.Request.UserAgent(),
		}
		if raw := c.GetHeader("X-Account-ID"); raw != "" {
			if id, err := uuid.FromString(raw); err == nil {
				actor.AccountID = &id
			}
		}
		c.Request = c.Request.WithContext(persistence.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// TransactionMiddleware wraps every mutating request in one transaction.
// It commits only when the handler finished without errors and rolls back
// on every other path, panics included. The response is held back until
// the commit went through, so a failed commit is answered with a problem
// instead of the handler's success body
func TransactionMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		ctx, hooks := persistence.WithCommitHooks(c.Request.Context())
		tx := db.WithContext(ctx).Begin()
		if tx.Error != nil {
			c.Error(persistence.Translate(tx.Error, "Failed to begin transaction"))
			c.Abort()
			return
		}
		buf := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = buf
		committed := false
		defer func() {
			c.Writer = buf.ResponseWriter
			if !committed {
				tx.Rollback()
			}
		}()
		if err := persistence.ActorFrom(ctx).Bind(tx); err != nil {
			c.Error(persistence.Translate(err, "Failed to bind request actor"))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(persistence.WithTx(ctx, tx))
		c.Next()

		if len(c.Errors) > 0 || buf.Status() >= http.StatusBadRequest {
			buf.flush()
			return
		}
		if err := tx.Commit().Error; err != nil {
			c.Error(persistence.Translate(err, "Failed to commit transaction"))
			return
		}
		committed = true
		buf.flush()
		hooks.Run(ctx)
	}
}

// bufferedWriter keeps the status and body of a response in memory until
// flush is called
type bufferedWriter struct {
	gin.ResponseWriter

	status int
	body   bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && w.status == 0 {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	if w.status == 0 {
		w.status = http.StatusOK
	}
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.WriteHeaderNow()
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(data string) (int, error) {
	w.WriteHeaderNow()
	return w.body.WriteString(data)
}

func (w *bufferedWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *bufferedWriter) Size() int {
	if w.status == 0 {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.status != 0
}

// Flush is a no-op while the response is held back
func (w *bufferedWriter) Flush() {}

// flush sends what the handler wrote, if anything
func (w *bufferedWriter) flush() {
	if w.status == 0 {
		return
	}
	w.ResponseWriter.WriteHeader(w.status)
	w.ResponseWriter.WriteHeaderNow()
	if w.body.Len() > 0 {
		_, _ = w.ResponseWriter.Write(w.body.Bytes())
	}
}

// ErrorMiddleware is a post middleware that renders the last error of a
// request as a problem detail
func ErrorMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		problem := ProblemFrom(err)
		if problem.Status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		if c.Writer.Written() {
			return
		}
		writeProblem(c, problem)
	}
}

func writeProblem(c *gin.Context, p *Problem) {
	c.Header("Content-Type", ProblemContentType)
	c.AbortWithStatusJSON(p.Status, p)
}

// Fail attaches err to the request and stops the handler chain
func Fail(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

// Attach installs the middleware chain shared by every route. Recovery wraps
// everything and errors are rendered after the transaction has been settled.
// actors run right after the request actor is set, so they can refine it
// before it gets bound to the transaction
func Attach(cfg config.Configuration, db *gorm.DB, log zerolog.Logger, r gin.IRoutes, actors ...gin.HandlerFunc) {
	r.Use(RecoveryMiddleware(log), LoggerMiddleware(log))
	if cfg.Server.RPS > 0 {
		r.Use(RateLimiterMiddleware(cfg.Server.RPS))
	}
	r.Use(SecurityMiddleware(cfg), ActorMiddleware())
	r.Use(actors...)
	r.Use(ErrorMiddleware(log), TransactionMiddleware(db))
}
