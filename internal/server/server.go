package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"

	"visionchat/internal/app"
	"visionchat/internal/asset"
	"visionchat/internal/ratelimit"
	"visionchat/internal/session"
	"visionchat/internal/util"
	"visionchat/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App               *app.App
	Assets            asset.Store
	MaxUploadBytes    int64
	AllowedExtensions []string
	// Limiter is optional; nil disables rate limiting.
	Limiter *ratelimit.FixedWindowLimiter
}

// Server exposes the relay's HTTP endpoints.
type Server struct {
	app               *app.App
	assets            asset.Store
	mux               *http.ServeMux
	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
	limiter           *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:               cfg.App,
		assets:            cfg.Assets,
		mux:               http.NewServeMux(),
		maxUploadBytes:    normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExtensions: normalizeExtensions(cfg.AllowedExtensions),
		limiter:           cfg.Limiter,
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/messages", s.handleMessages)
	s.mux.HandleFunc("/process-image", s.handleProcessImage)
	s.mux.HandleFunc("/chat", s.handleChat)
	s.mux.HandleFunc("/images/", s.handleImage)
	s.mux.HandleFunc("/clear", s.handleClear)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /messages returns the chat log; DELETE /messages resets it
// (kept for compatibility with the original frontend).
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		messages, err := s.app.Messages(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messages)
	case http.MethodDelete:
		s.reset(w, r)
	default:
		methodNotAllowed(w)
	}
}

// POST /process-image runs the extraction operation on an uploaded image.
func (s *Server) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many image uploads") {
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required (field: image)")
		return
	}
	defer file.Close()
	if !s.isExtensionAllowed(header.Filename) {
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}
	mode := strings.TrimSpace(r.FormValue("mode"))
	if mode == "" {
		mode = app.ModeAuto
	}
	instruction := r.FormValue("instruction")
	declaredType := header.Header.Get("Content-Type")

	messages, err := s.app.ProcessImage(r.Context(), header.Filename, file, declaredType, mode, instruction)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// POST /chat runs the follow-up operation against the stored extraction.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many chat requests") {
		return
	}
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	messages, err := s.app.Chat(r.Context(), req.Question, req.EnableSearch)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// GET /images/{id} streams stored asset bytes.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/images/")
	rc, contentType, err := s.assets.Open(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, rc)
}

// DELETE /clear resets the session and purges all assets.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	s.reset(w, r)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Reset(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, []domain.Message{})
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, msg string) bool {
	if s.limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + clientIP(r)
	if s.limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) isExtensionAllowed(filename string) bool {
	if len(s.allowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := s.allowedExtensions[ext]
	return ok
}

type chatRequest struct {
	Question     string `json:"question"`
	EnableSearch bool   `json:"enable_search"`
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps the error taxonomy onto HTTP statuses. Corrupt state
// and storage failures stay request-scoped 500s; the process survives and
// an operator can recover with DELETE /clear.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrNoExtraction),
		errors.Is(err, app.ErrInvalidMode),
		errors.Is(err, app.ErrEmptyQuestion),
		errors.Is(err, asset.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, asset.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidAsset):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrExternalService):
		util.LoggerFromContext(r.Context()).Warn("model call failed", "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, session.ErrCorruptState):
		util.LoggerFromContext(r.Context()).Error("session state corrupt", "err", err)
		writeError(w, http.StatusInternalServerError, "session state is corrupt; reset with DELETE /clear")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 20 * 1024 * 1024
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
