// CLAUDE:SUMMARY Entry point for the gabarit extraction service — chi router, Basic Auth, optional MCP stdio.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/gabarit/dbopen"
	"github.com/hazyhaar/gabarit/docpipe"
	"github.com/hazyhaar/gabarit/layout"
	"github.com/hazyhaar/gabarit/llm"
	"github.com/hazyhaar/gabarit/observability"
	"github.com/hazyhaar/gabarit/pipeline"
	"github.com/hazyhaar/gabarit/shield"
)

//go:embed static
var staticFS embed.FS

func main() {
	configPath := flag.String("config", "", "path to gabarit.yaml config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	mem, err := layout.New(db, layout.Config{Logger: logger})
	if err != nil {
		slog.Error("layout memory", "error", err)
		os.Exit(1)
	}

	events, err := observability.NewRecorder(db)
	if err != nil {
		slog.Error("event recorder", "error", err)
		os.Exit(1)
	}
	if cfg.Retention > 0 {
		if err := observability.Cleanup(ctx, db, cfg.Retention); err != nil {
			slog.Warn("event cleanup", "error", err)
		}
	}

	var extractor llm.Extractor
	if cfg.OpenAI.APIKey != "" {
		extractor, err = llm.NewOpenAIExtractor(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
		if err != nil {
			slog.Error("openai extractor", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no OPENAI_API_KEY: fallback extraction disabled, only learned layouts will resolve")
	}

	pipe, err := pipeline.New(pipeline.Config{
		Memory:    mem,
		Extractor: extractor,
		Reader:    docpipe.New(docpipe.Config{MaxFileSize: cfg.MaxFileSize, Logger: logger}),
		Events:    events,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("pipeline", "error", err)
		os.Exit(1)
	}

	// MCP stdio mode: serve tools over stdin/stdout instead of HTTP.
	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		srv := mcp.NewServer(&mcp.Implementation{Name: "gabarit", Version: "1.0.0"}, nil)
		mem.RegisterMCP(srv)
		if err := srv.Run(ctx, &mcp.IOTransport{Reader: os.Stdin, Writer: os.Stdout}); err != nil && ctx.Err() == nil {
			slog.Error("mcp stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Basic Auth: enabled when a password is configured.
	var passwordHash []byte
	if cfg.AuthPassword != "" {
		passwordHash, err = shield.HashPassword(cfg.AuthPassword)
		if err != nil {
			slog.Error("hash password", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no AUTH_PASSWORD: API is unauthenticated")
	}

	limiter := shield.NewRateLimiter(shield.RateLimitConfig{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}, "/health")

	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}
	r.Use(limiter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("static/index.html")
		if err != nil {
			http.Error(w, "not found", 404)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})
	r.Handle("/static/*", http.FileServerFS(staticFS))

	r.Group(func(r chi.Router) {
		r.Use(shield.BasicAuth(cfg.AuthUser, passwordHash))

		r.Post("/api/extract", func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			label, schemaRaw, pdf, err := parseExtractRequest(req)
			if err != nil {
				writeError(w, 400, err)
				return
			}
			out, err := pipe.ExtractPDF(req.Context(), label, schemaRaw, pdf)
			if err != nil {
				writeError(w, 422, err)
				return
			}
			writeJSON(w, 200, map[string]any{
				"success":         true,
				"label":           label,
				"cache_hit":       out.CacheHit,
				"resolved_count":  out.ResolvedCount,
				"fallback_count":  out.FallbackCount,
				"runtime_seconds": time.Since(start).Seconds(),
				"result":          out.Result,
			})
		})

		r.Get("/api/labels/{label}/stats", func(w http.ResponseWriter, req *http.Request) {
			label := chi.URLParam(req, "label")
			stats, err := mem.FieldStats(req.Context(), label)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			fields := make([]map[string]any, 0, len(stats))
			for _, fs := range stats {
				entry := map[string]any{
					"field":   fs.Field,
					"n":       fs.N,
					"mean_px": fs.MeanPX,
					"mean_py": fs.MeanPY,
				}
				ci, err := mem.ConfidenceInterval(req.Context(), label, fs.Field)
				if err != nil {
					writeError(w, 500, err)
					return
				}
				if ci != nil {
					entry["interval"] = ci
				}
				fields = append(fields, entry)
			}
			writeJSON(w, 200, map[string]any{"label": label, "fields": fields})
		})

		r.Get("/api/labels/{label}/events", func(w http.ResponseWriter, req *http.Request) {
			summary, err := events.Summary(req.Context(), chi.URLParam(req, "label"))
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, summary)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// parseExtractRequest reads the multipart extraction request: a "document"
// PDF file, a "label" value and a "schema" JSON object.
func parseExtractRequest(r *http.Request) (label string, schemaRaw, pdf []byte, err error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, nil, fmt.Errorf("multipart form: %w", err)
	}
	label = r.FormValue("label")
	if label == "" {
		return "", nil, nil, fmt.Errorf("label is required")
	}
	schema := r.FormValue("schema")
	if schema == "" {
		return "", nil, nil, fmt.Errorf("schema is required")
	}
	f, _, err := r.FormFile("document")
	if err != nil {
		return "", nil, nil, fmt.Errorf("document file: %w", err)
	}
	defer f.Close()
	pdf, err = io.ReadAll(f)
	if err != nil {
		return "", nil, nil, fmt.Errorf("read document: %w", err)
	}
	return label, []byte(schema), pdf, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"success": false, "error": err.Error()})
}
