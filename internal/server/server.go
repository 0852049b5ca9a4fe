// Package server exposes extraction sessions over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vivaneiona/tabextract"
	"github.com/vivaneiona/tabextract/history"
	"github.com/vivaneiona/tabextract/source"
)

// SheetsClient reads and writes Google Sheets tabs.
type SheetsClient interface {
	Read(ctx context.Context, url string) (*source.Table, error)
	Write(ctx context.Context, url string, records []tabextract.Record) error
}

type Options struct {
	Extractor *tabextract.Extractor
	Prompts   *tabextract.PromptLibrary
	// Sheets is optional; sheet endpoints answer 501 without it.
	Sheets  SheetsClient
	History history.Store
	// MaxUploadBytes bounds multipart uploads. Zero means 32 MiB.
	MaxUploadBytes int64
}

type Server struct {
	opts   Options
	store  *SessionStore
	engine *gin.Engine
}

func New(opts Options) *Server {
	if opts.History == nil {
		opts.History = history.Nop{}
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	s := &Server{opts: opts, store: NewSessionStore()}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.MaxMultipartMemory = opts.MaxUploadBytes

	api := r.Group("/api")
	api.GET("/templates", s.listTemplates)
	api.GET("/history", s.listHistory)
	api.POST("/sessions", s.createSession)

	sess := api.Group("/sessions/:id", s.loadWorkspace)
	sess.GET("", s.getSession)
	sess.DELETE("", s.deleteSession)
	sess.POST("/table", s.uploadTable)
	sess.PUT("/selection", s.updateSelection)
	sess.GET("/prompt", s.getPrompt)
	sess.POST("/run", s.run)
	sess.GET("/export", s.export)
	sess.POST("/sheet", s.writeSheet)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Sessions() *SessionStore { return s.store }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.S().Debugw("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func abort(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}
