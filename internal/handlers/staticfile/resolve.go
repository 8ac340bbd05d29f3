package staticfile

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"example.com/wwwserve/internal/logger"
)

// Request is the part of the request line the resolver cares about.
type Request struct {
	Method string
	Target string
}

// parseRequestLine extracts method and target from the first line of raw.
// It reports false when raw is not valid UTF-8 or the line has no target.
func parseRequestLine(raw []byte) (Request, bool) {
	if !utf8.Valid(raw) {
		return Request{}, false
	}
	line, _, _ := strings.Cut(string(raw), "\n")
	parts := strings.Split(line, " ")
	if len(parts) < 2 || parts[1] == "" {
		return Request{}, false
	}
	return Request{Method: parts[0], Target: parts[1]}, true
}

// resolve maps a GET target to a file under the document root. The checks run
// in a fixed order and the first failing one decides the outcome.
func (h *Handler) resolve(target string) Outcome {
	url := unescapeTarget(target)
	if strings.HasSuffix(url, "/") {
		url += "index.html"
	}

	candidate := h.root + url
	ext := suffix(candidate)

	if ext == "" {
		// Only redirect when the directory index really exists under the root.
		index := candidate + "/index.html"
		if h.contains(index) && isRegularFile(index) {
			return movedPermanently(url + "/")
		}
		return errNotFound
	}

	if !h.contains(candidate) {
		h.log.Warn("Path resolved outside document root", logger.LogFields{"target": target, "resolved": candidate})
		return errNotFound
	}

	if !h.allowed[ext] {
		return errNotFound
	}

	// Trailing "." segments name the file itself.
	filePath := filepath.Clean(candidate)
	if !isRegularFile(filePath) {
		return errNotFound
	}

	return Success{FilePath: filePath}
}

// contains reports whether p, made absolute and lexically cleaned, lies
// strictly below the document root.
func (h *Handler) contains(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	prefix := h.absRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(abs, prefix)
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// suffix returns the extension of the last path component, including the dot.
// A name that starts or ends with its only dot ("." , "..", ".hidden", "file.")
// has no extension.
func suffix(p string) string {
	name := lastComponent(p)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// lastComponent returns the final name in p, ignoring empty and "." segments.
func lastComponent(p string) string {
	segments := strings.Split(p, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := segments[i]; s != "" && s != "." {
			return s
		}
	}
	return ""
}
