package staticfile

import "net/http"

// Status texts written on the response status line. The success text is "Ok"
// rather than the canonical "OK" to stay byte-compatible with existing clients.
const (
	statusTextOK               = "Ok"
	statusTextMovedPermanently = "Moved Permanently"
	statusTextBadRequest       = "Bad Request"
	statusTextNotFound         = "Not Found"
	statusTextMethodNotAllowed = "Method Not Allowed"
)

// Outcome is the result of resolving one request. It is exactly one of
// Success, Redirect or Error.
type Outcome interface {
	// Status returns the HTTP status code and text for the status line.
	Status() (code int, text string)
	outcome()
}

// Success means the request maps to a servable file.
type Success struct {
	FilePath string
}

// Redirect sends the client to Location.
type Redirect struct {
	StatusCode int
	Message    string
	Location   string
}

// Error is a client-visible failure with no body.
type Error struct {
	StatusCode int
	Message    string
}

func (Success) Status() (int, string)    { return http.StatusOK, statusTextOK }
func (r Redirect) Status() (int, string) { return r.StatusCode, r.Message }
func (e Error) Status() (int, string)    { return e.StatusCode, e.Message }

func (Success) outcome()  {}
func (Redirect) outcome() {}
func (Error) outcome()    {}

var (
	errBadRequest       = Error{StatusCode: http.StatusBadRequest, Message: statusTextBadRequest}
	errNotFound         = Error{StatusCode: http.StatusNotFound, Message: statusTextNotFound}
	errMethodNotAllowed = Error{StatusCode: http.StatusMethodNotAllowed, Message: statusTextMethodNotAllowed}
)

func movedPermanently(location string) Redirect {
	return Redirect{StatusCode: http.StatusMovedPermanently, Message: statusTextMovedPermanently, Location: location}
}
