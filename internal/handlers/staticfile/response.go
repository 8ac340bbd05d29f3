package staticfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// lineSep terminates every line of a response. A bare "\n" is used rather
// than CRLF; clients of this server depend on it.
const lineSep = "\n"

// Header is a single response header line. Headers are written in slice order.
type Header struct {
	Name  string
	Value string
}

// Render builds an HTTP/1.1 response. When filePath is non-empty the file is
// read and sent as the body with a "Content-Type: text/<ext>" header; its line
// endings are normalized to "\n". A read
// failure is returned as an error and no response is produced.
func Render(statusCode int, statusText string, headers []Header, filePath string) (string, error) {
	var b strings.Builder
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(statusCode))
	b.WriteString(" ")
	b.WriteString(statusText)
	b.WriteString(lineSep)

	for _, h := range headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString(lineSep)
	}

	if filePath != "" {
		body, err := readFile(filePath)
		if err != nil {
			return "", err
		}
		b.WriteString("Content-Type: text/")
		b.WriteString(strings.TrimPrefix(suffix(filePath), "."))
		b.WriteString(lineSep)
		b.WriteString(lineSep)
		b.Write(normalizeNewlines(body))
	}
	b.WriteString(lineSep)

	return b.String(), nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return body, nil
}

// normalizeNewlines converts "\r\n" and bare "\r" line endings to "\n".
func normalizeNewlines(body []byte) []byte {
	if !bytes.ContainsRune(body, '\r') {
		return body
	}
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(body, []byte("\r"), []byte("\n"))
}

// renderOutcome turns a resolved Outcome into response text.
func renderOutcome(o Outcome) (string, error) {
	code, text := o.Status()
	switch o := o.(type) {
	case Success:
		return Render(code, text, nil, o.FilePath)
	case Redirect:
		return Render(code, text, []Header{{Name: "Location", Value: o.Location}}, "")
	default:
		return Render(code, text, nil, "")
	}
}
