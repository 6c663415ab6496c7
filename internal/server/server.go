// Package server exposes the validator over HTTP.
//
//	GET  /healthz       liveness
//	POST /v1/validate   repair an assembly, return components, graph and report
//	POST /v1/graph      connectivity graph as DOT (default) or SVG (?format=svg)
//
// Request bodies carry the components and, optionally, rule file source and
// a connection map. Each request gets its own rules engine and validator, so
// requests never share state.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chazu/trestle/internal/config"
	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/render"
	"github.com/chazu/trestle/pkg/rules"
	"github.com/chazu/trestle/pkg/scene"
)

// Server is the HTTP API.
type Server struct {
	cfg    config.Server
	opts   assembly.Options
	logger *log.Logger
	evals  *rules.Limiter
	router chi.Router
}

// New builds the router. opts are the validator defaults requests start from.
func New(cfg config.Server, opts assembly.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{cfg: cfg, opts: opts, logger: logger, evals: rules.NewLimiter(cfg.MaxRuleEvals)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/graph", s.handleGraph)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

// Request is the body of /v1/validate and /v1/graph.
type Request struct {
	Components  json.RawMessage     `json:"components"`
	Rules       string              `json:"rules,omitempty"`
	Connections map[string][]string `json:"connections,omitempty"`
	Options     *RequestOptions     `json:"options,omitempty"`
}

// RequestOptions overrides validator options for one request.
type RequestOptions struct {
	Rerun            *bool    `json:"rerun,omitempty"`
	BridgeFixedPairs *bool    `json:"bridge_fixed_pairs,omitempty"`
	Tolerance        *float64 `json:"tolerance,omitempty"`
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	res, err := s.run(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	res, err := s.run(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dot := render.ToDOT(res.Graph, render.Options{Report: &res.Report, Roles: r.URL.Query().Get("roles") != ""})

	switch format := r.URL.Query().Get("format"); format {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = io.WriteString(w, dot)
	case "svg":
		svg, err := render.RenderSVG(r.Context(), dot)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "format %q: expected dot or svg", format))
	}
}

// run decodes the request and validates it.
func (s *Server) run(r *http.Request) (assembly.Result, error) {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 4 << 20
	}
	var req Request
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	if err := dec.Decode(&req); err != nil {
		return assembly.Result{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	if len(req.Components) == 0 {
		return assembly.Result{}, errors.New(errors.ErrCodeInvalidInput, "request has no components")
	}
	comps, err := scene.Unmarshal(req.Components)
	if err != nil {
		return assembly.Result{}, err
	}

	opts := s.opts
	var (
		conns    assembly.Connections
		patterns []assembly.PatternSpec
	)
	if req.Rules != "" {
		eng := rules.NewEngine()
		eng.Timeout = s.cfg.RulesTimeout.Duration
		eng.Limiter = s.evals
		rs, evalErrs, err := eng.Evaluate(req.Rules, comps)
		if err != nil {
			return assembly.Result{}, err
		}
		if len(evalErrs) > 0 {
			return assembly.Result{}, errors.New(errors.ErrCodeInvalidRules, "%s", evalErrs[0].Error())
		}
		opts = rs.Apply(opts)
		conns = rs.ConnectionsOrNil()
		patterns = rs.Patterns
	}
	if len(req.Connections) > 0 {
		if conns == nil {
			conns = make(assembly.Connections)
		}
		for a, bs := range req.Connections {
			for _, b := range bs {
				conns.Add(a, b)
			}
		}
	}
	if o := req.Options; o != nil {
		if o.Rerun != nil {
			opts.Rerun = *o.Rerun
		}
		if o.BridgeFixedPairs != nil {
			opts.BridgeFixedPairs = *o.BridgeFixedPairs
		}
		if o.Tolerance != nil {
			opts.Tolerance = *o.Tolerance
		}
	}
	opts.Logger = s.logger.With("req", middleware.GetReqID(r.Context()))

	return assembly.New(opts).Validate(comps, conns, patterns), nil
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidRules:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotAcceptable
	case errors.ErrCodeTimeout:
		return http.StatusRequestTimeout
	case errors.ErrCodeBusy:
		return http.StatusServiceUnavailable
	case errors.ErrCodeRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	var body errorBody
	body.Error.Code = code
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
