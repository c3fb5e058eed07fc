package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	linecard "github.com/alnah/go-linecard"
	"github.com/alnah/go-linecard/internal/config"
	"github.com/alnah/go-linecard/internal/fileutil"
	"github.com/alnah/go-linecard/internal/metrics"
	"github.com/alnah/go-linecard/internal/publish"
)

// Server limits.
const (
	maxRequestBytes   = 64 << 10
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
	formTemplate      = "form"
	formTitle         = "Line Card Generator"
)

// outcomeClasses maps library errors to metric outcomes, and through
// statusFor to HTTP statuses.
var outcomeClasses = []metrics.Class{
	{Outcome: metrics.OutcomeInvalidInput, Errors: []error{linecard.ErrInvalidRegion, linecard.ErrInvalidState}},
	{Outcome: metrics.OutcomeConfig, Errors: []error{linecard.ErrMissingCredential, linecard.ErrInvalidConfig}},
	{Outcome: metrics.OutcomeRetrieval, Errors: []error{linecard.ErrRetrieval}},
}

// statusFor returns the HTTP status for a failed generation.
func statusFor(outcome string) int {
	switch outcome {
	case metrics.OutcomeInvalidInput:
		return http.StatusBadRequest
	case metrics.OutcomeRetrieval:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// generateRequest is the JSON body of both generate routes.
type generateRequest struct {
	Region string `json:"region"`
	State  string `json:"state"`
}

// generateResponse describes a generated document.
type generateResponse struct {
	Message  string `json:"message"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// formData feeds the index template.
type formData struct {
	Title   string
	Regions []linecard.Region
}

// server holds the web front end's shared state.
type server struct {
	pool      *linecard.GeneratorPool
	directory *linecard.Directory
	publisher publish.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	form      *template.Template
	now       func() time.Time

	outputDir string
	maxAge    time.Duration

	// urls maps a generated file name to its published URL.
	urls sync.Map
}

// newServer builds the generator pool and publisher. One generator is
// created up front so configuration errors surface before listening.
func newServer(ctx context.Context, cfg *config.Config, env *Environment, logger *zap.Logger, m *metrics.Metrics) (*server, error) {
	// The server sweeps the output dir itself so it can forget the
	// published URLs of removed files.
	gcfg := *cfg
	gcfg.Output.MaxAge = 0
	factory, dir, err := generatorFactory(&gcfg, env, logger)
	if err != nil {
		return nil, err
	}

	text, err := env.Templates.LoadTemplate(formTemplate)
	if err != nil {
		return nil, err
	}
	form, err := template.New(formTemplate).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", formTemplate, err)
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pool := linecard.NewGeneratorPool(linecard.ResolvePoolSize(cfg.Server.Workers), factory)
	g, err := pool.Acquire(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	pool.Release(g)

	return &server{
		pool:      pool,
		directory: dir,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		form:      form,
		now:       env.Now,
		outputDir: cfg.Output.Dir,
		maxAge:    cfg.Output.MaxAge,
	}, nil
}

// newPublisher selects the publish driver.
func newPublisher(ctx context.Context, cfg *config.Config) (publish.Publisher, error) {
	if cfg.Publish.Driver == publish.DriverS3 {
		s := cfg.Publish.S3
		return publish.NewS3(ctx, publish.S3Config{
			Bucket:       s.Bucket,
			Region:       s.Region,
			Prefix:       s.Prefix,
			Endpoint:     s.Endpoint,
			UsePathStyle: s.UsePathStyle,
			PresignTTL:   s.PresignTTL,
		})
	}
	return publish.NewLocal(cfg.Server.PublicURL)
}

// Close releases every pooled generator.
func (s *server) Close() error {
	return s.pool.Close()
}

// routes returns the instrumented handler tree.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /generate-pdf/regional", s.handleGenerate(metrics.KindRegional))
	mux.HandleFunc("POST /generate-pdf/state", s.handleGenerate(metrics.KindState))
	mux.HandleFunc("GET /"+publish.OutputRoute+"/{filename}", s.handleOutput)
	mux.HandleFunc("GET /qrcode/{filename}", s.handleQRCode)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", s.metrics.Handler())

	var h http.Handler = mux
	h = withRecover(s.logger, h)
	h = withAccessLog(s.logger, h)
	h = withRequestID(h)
	return otelhttp.NewHandler(h, "linecard")
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := formData{Title: formTitle, Regions: s.directory.Regions()}
	if err := s.form.Execute(w, data); err != nil {
		s.logger.Error("rendering form", zap.Error(err))
	}
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate serves POST /generate-pdf/{kind}.
func (s *server) handleGenerate(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body generateRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.metrics.Observe(kind, metrics.OutcomeInvalidInput, 0, 0)
			writeError(w, http.StatusBadRequest, "request body must be a JSON object")
			return
		}

		field, value := "region", strings.TrimSpace(body.Region)
		req := linecard.Request{Region: value}
		if kind == metrics.KindState {
			field, value = "state", strings.TrimSpace(body.State)
			req = linecard.Request{State: value}
		}
		if value == "" {
			s.metrics.Observe(kind, metrics.OutcomeInvalidInput, 0, 0)
			writeError(w, http.StatusBadRequest, field+" is required")
			return
		}

		res, err := s.generate(r.Context(), req)
		outcome := metrics.Outcome(err, outcomeClasses...)
		if err != nil {
			s.metrics.Observe(kind, outcome, 0, 0)
			s.logger.Warn("generation failed",
				zap.String("request_id", requestIDFrom(r.Context())),
				zap.String("kind", kind),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
			msg := err.Error()
			if outcome == metrics.OutcomeRender {
				msg = "document generation failed"
			}
			writeError(w, statusFor(outcome), msg)
			return
		}
		s.metrics.Observe(kind, outcome, res.Duration, res.Stats.LogoFailures)

		link, err := s.publisher.Publish(r.Context(), res.Path)
		if err != nil {
			s.logger.Error("publish failed", zap.String("driver", s.publisher.Driver()), zap.Error(err))
			writeError(w, http.StatusBadGateway, "document generated but could not be published")
			return
		}
		s.urls.Store(res.Filename, link)
		s.sweep()

		writeJSON(w, http.StatusOK, generateResponse{
			Message:  fmt.Sprintf("%s line card generated.", res.Name),
			Path:     "/" + publish.OutputRoute + "/" + res.Filename,
			Filename: res.Filename,
			URL:      link,
		})
	}
}

// generate runs one request on a pooled generator.
func (s *server) generate(ctx context.Context, req linecard.Request) (*linecard.Result, error) {
	s.metrics.InFlight.Inc()
	defer s.metrics.InFlight.Dec()

	g, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Release(g)
	return g.Generate(ctx, req)
}

// handleOutput serves a generated document by bare file name.
func (s *server) handleOutput(w http.ResponseWriter, r *http.Request) {
	path, ok := s.outputPath(w, r.PathValue("filename"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// handleQRCode returns a PNG QR code for a document's published URL.
func (s *server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if err := fileutil.ValidateFilename(name); err != nil {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	var link string
	if v, ok := s.urls.Load(name); ok {
		link = v.(string)
	} else if _, local := s.publisher.(*publish.Local); local {
		path, ok := s.outputPath(w, name)
		if !ok {
			return
		}
		var err error
		if link, err = s.publisher.Publish(r.Context(), path); err != nil {
			writeError(w, http.StatusInternalServerError, "could not build document URL")
			return
		}
	} else {
		writeError(w, http.StatusNotFound, "unknown document")
		return
	}

	png, err := encodeQRCode(link, defaultQRCodeSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not encode QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// outputPath validates name and resolves it inside the output directory,
// writing a 400 or 404 response when it cannot.
func (s *server) outputPath(w http.ResponseWriter, name string) (string, bool) {
	if err := fileutil.ValidateFilename(name); err != nil || !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return "", false
	}
	path := filepath.Join(s.outputDir, name)
	if !fileutil.FileExists(path) {
		writeError(w, http.StatusNotFound, "document not found")
		return "", false
	}
	return path, true
}

// sweepLoop removes expired documents every interval until ctx is done.
func (s *server) sweepLoop(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.sweep()
		}
	}
}

// sweep runs one pass over the output directory.
func (s *server) sweep() {
	if s.maxAge <= 0 {
		return
	}
	removed, err := fileutil.SweepOlderThan(s.outputDir, s.maxAge, s.now())
	for _, p := range removed {
		s.urls.Delete(filepath.Base(p))
	}
	s.metrics.Swept.Add(float64(len(removed)))
	if err != nil {
		s.logger.Warn("output sweep failed", zap.Error(err))
	}
}

// runServe starts the web front end and blocks until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f.common, env)
	if err != nil {
		return err
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.workers > 0 {
		cfg.Server.Workers = f.workers
	}
	if f.outputDir != "" {
		cfg.Output.Dir = f.outputDir
	}
	if f.assets != "" {
		cfg.Assets.Dir = f.assets
	}
	if f.publicURL != "" {
		cfg.Server.PublicURL = f.publicURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, logJSON, f.common)
	defer func() { _ = logger.Sync() }()

	srv, err := newServer(ctx, cfg, env, logger, metrics.New())
	if err != nil {
		return withHint(err, cfg, nil)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("closing generators", zap.Error(err))
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Int("workers", srv.pool.Size()),
			zap.String("publish", srv.publisher.Driver()),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if cfg.Output.MaxAge > 0 && cfg.Server.SweepInterval > 0 {
		g.Go(func() error { return srv.sweepLoop(gctx, cfg.Server.SweepInterval) })
	}
	return g.Wait()
}

// writeJSON writes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": msg} with status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
