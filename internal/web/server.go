// Package web serves the browser dashboard and a small JSON API over fiber.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/blackwell-systems/gitrate/internal/analysis"
	"github.com/blackwell-systems/gitrate/internal/report"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Analyzer runs one analysis for a raw repository URL.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*analysis.Result, error)
}

// Server is the HTTP front-end.
type Server struct {
	app      *fiber.App
	analyzer Analyzer
	logger   *slog.Logger
	version  string
}

// New builds the fiber app and registers its routes.
func New(a Analyzer, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "gitrate",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		}),
		analyzer: a,
		logger:   logger,
		version:  version,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.handleIndex)
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Get("/analyze", s.handleAnalyze)
	api.Get("/report", s.handleReport)
}

// App exposes the underlying fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	s.logger.Info("web dashboard listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down web server: %w", err)
		}
		return nil
	}
}

type indexPage struct {
	URL      string
	Error    string
	Report   *report.Report
	FileName string
}

func (s *Server) handleIndex(c fiber.Ctx) error {
	page := indexPage{URL: strings.TrimSpace(c.Query("url")), FileName: report.FileName}
	status := fiber.StatusOK
	if page.URL != "" {
		res, err := s.analyzer.Analyze(c.Context(), page.URL)
		if err != nil {
			status = statusFor(err)
			page.Error = analysis.Message(err)
		} else {
			page.Report = res.Report()
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		s.logger.Error("rendering dashboard", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render page")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleAnalyze(c fiber.Ctx) error {
	res, err := s.analyzer.Analyze(c.Context(), c.Query("url"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(res.Report())
}

func (s *Server) handleReport(c fiber.Ctx) error {
	res, err := s.analyzer.Analyze(c.Context(), c.Query("url"))
	if err != nil {
		return s.writeError(c, err)
	}
	md, err := report.NewMarkdownFormatter().Format(res.Report())
	if err != nil {
		return s.writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, report.MIMEType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.FileName))
	return c.SendString(md)
}

func (s *Server) writeError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Warn("analysis failed", "url", c.Query("url"), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": analysis.Message(err)})
}

func statusFor(err error) int {
	switch {
	case analysis.IsInputError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusBadGateway
	}
}
