package xhrtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Path is the endpoint accepting JSON posts.
const Path = "/post/json"

// Received is a request as seen by the Server.
type Received struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server is a loopback HTTP server answering like the endpoint the default
// envelope targets: POST Path echoes the body back as JSON, other methods get
// 405 and other paths 404, both as text/plain.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	received []Received
}

func NewServer() *Server {
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// PostURL returns the URL of the JSON endpoint.
func (s *Server) PostURL() string {
	return s.URL + Path
}

func (s *Server) Received() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()

	received := make([]Received, len(s.received))
	copy(received, s.received)
	return received
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.received = append(s.received, Received{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()

	if r.URL.Path != Path {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "404 Not Found")
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusMethodNotAllowed)
		io.WriteString(w, "405 Method Not Allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
