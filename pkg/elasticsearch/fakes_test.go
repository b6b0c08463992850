package elasticsearch_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

// fakeCluster is an in-memory stand-in for the document and index APIs.
type fakeCluster struct {
	mu      sync.Mutex
	indices map[string]map[string][]byte
	nextID  int
	calls   []string
	failure int
}

func newFakeCluster(t *testing.T) (*fakeCluster, *httptest.Server) {
	t.Helper()
	cluster := &fakeCluster{indices: map[string]map[string][]byte{}}
	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)
	return cluster, server
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, r.Method+" "+r.URL.Path)

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if c.failure != 0 {
		w.WriteHeader(c.failure)
		writeJSON(w, map[string]any{"error": "injected failure"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case len(parts) == 1 && r.Method == http.MethodHead:
		if _, ok := c.indices[parts[0]]; ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case len(parts) == 2 && parts[1] == "_doc" && r.Method == http.MethodPost:
		c.nextID++
		c.put(w, r, parts[0], fmt.Sprintf("generated-%d", c.nextID))
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodPut:
		c.put(w, r, parts[0], parts[2])
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodGet:
		source, ok := c.indices[parts[0]][parts[2]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"_index": parts[0], "_id": parts[2], "found": false})
			return
		}
		writeJSON(w, map[string]any{"_index": parts[0], "_id": parts[2], "found": true, "_source": json.RawMessage(source)})
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := c.indices[parts[0]][parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"_id": parts[2], "result": "not_found"})
			return
		}
		delete(c.indices[parts[0]], parts[2])
		writeJSON(w, map[string]any{"_id": parts[2], "result": "deleted"})
	default:
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]any{"error": "unsupported " + r.Method + " " + r.URL.Path})
	}
}

func (c *fakeCluster) put(w http.ResponseWriter, r *http.Request, index, id string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if c.indices[index] == nil {
		c.indices[index] = map[string][]byte{}
	}
	c.indices[index][id] = body
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{"_index": index, "_id": id, "result": "created"})
}

func (c *fakeCluster) failWith(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure = status
}

func (c *fakeCluster) requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.calls...)
}

func (c *fakeCluster) document(index, id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.indices[index][id]
	return doc, ok
}

func writeJSON(w io.Writer, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// fakeDialer accepts connections to the listed addresses only.
type fakeDialer struct {
	mu        sync.Mutex
	reachable map[string]bool
	dialed    []string
}

func newFakeDialer(reachable ...string) *fakeDialer {
	d := &fakeDialer{reachable: map[string]bool{}}
	for _, addr := range reachable {
		d.reachable[addr] = true
	}
	return d
}

func (d *fakeDialer) DialContext(_ context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialed = append(d.dialed, address)
	if !d.reachable[address] {
		return nil, &net.OpError{Op: "dial", Net: network, Err: fmt.Errorf("connection refused")}
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

func (d *fakeDialer) Dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.dialed...)
}

type book struct {
	ISBN   string `json:"isbn" es:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
}

func (book) IndexName() string { return "library-books" }

type review struct {
	ID    int64  `json:"id"`
	Stars int    `json:"stars"`
	Text  string `json:"text"`
}
