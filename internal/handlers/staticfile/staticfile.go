// Package staticfile turns a raw HTTP/1.1 request into a response serving
// files from a document root.
package staticfile

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"example.com/wwwserve/internal/config"
	"example.com/wwwserve/internal/logger"
)

// Handler resolves GET requests against a document root and an extension
// allow-list. Its configuration is fixed at construction, so one Handler can
// serve concurrent connections.
type Handler struct {
	root    string // absRoot without a trailing separator; request targets are appended to it
	absRoot string
	allowed map[string]bool
	log     *logger.Logger
}

// Response is a rendered reply along with what was asked for.
type Response struct {
	StatusCode int
	Method     string
	Target     string
	Payload    string
}

// New creates a Handler for cfg. The document root must be an existing directory.
func New(cfg *config.StaticConfig, lg *logger.Logger) (*Handler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("staticfile: config cannot be nil")
	}
	if cfg.DocumentRoot == "" {
		return nil, fmt.Errorf("staticfile: document root cannot be empty")
	}
	if lg == nil {
		lg = logger.NewDiscardLogger()
	}

	absRoot, err := filepath.Abs(cfg.DocumentRoot)
	if err != nil {
		return nil, fmt.Errorf("staticfile: failed to get absolute path for document root %s: %w", cfg.DocumentRoot, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("staticfile: document root %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("staticfile: document root %s is not a directory", absRoot)
	}

	allowed := cfg.AllowedFileTypes
	if allowed == nil {
		allowed = config.DefaultAllowedFileTypes()
	}
	allowedCopy := make(map[string]bool, len(allowed))
	for ext, ok := range allowed {
		allowedCopy[ext] = ok
	}

	return &Handler{
		root:    strings.TrimSuffix(absRoot, string(filepath.Separator)),
		absRoot: absRoot,
		allowed: allowedCopy,
		log:     lg,
	}, nil
}

// Resolve parses raw and decides how the request should be answered.
func (h *Handler) Resolve(raw []byte) (Request, Outcome) {
	req, ok := parseRequestLine(raw)
	if !ok {
		return req, errBadRequest
	}
	if req.Method != http.MethodGet {
		return req, errMethodNotAllowed
	}
	return req, h.resolve(req.Target)
}

// Serve resolves raw and renders the response. An error means the selected
// file could not be read and nothing should be written to the client.
func (h *Handler) Serve(raw []byte) (*Response, error) {
	req, outcome := h.Resolve(raw)
	code, _ := outcome.Status()

	h.log.Debug("Resolved request", logger.LogFields{
		"method":  req.Method,
		"target":  req.Target,
		"status":  code,
		"outcome": fmt.Sprintf("%T", outcome),
	})

	payload, err := renderOutcome(outcome)
	if err != nil {
		h.log.Error("Failed to render response", logger.LogFields{"target": req.Target, "error": err.Error()})
		return nil, fmt.Errorf("staticfile: %w", err)
	}

	return &Response{
		StatusCode: code,
		Method:     req.Method,
		Target:     req.Target,
		Payload:    payload,
	}, nil
}

// Handle returns the response text for raw.
func (h *Handler) Handle(raw []byte) (string, error) {
	resp, err := h.Serve(raw)
	if err != nil {
		return "", err
	}
	return resp.Payload, nil
}
