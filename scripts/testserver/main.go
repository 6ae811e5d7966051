// Command testserver is a local target for trying nai against controlled
// status codes and latencies.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
)

type server struct {
	status   int
	latency  time.Duration
	jitter   time.Duration
	failRate float64
	hits     atomic.Int64
}

func main() {
	port := pflag.IntP("port", "p", 8080, "Listening port")
	status := pflag.Int("status", http.StatusOK, "Status returned by /")
	latency := pflag.Duration("latency", 5*time.Millisecond, "Base latency added to every response")
	jitter := pflag.Duration("jitter", 0, "Extra uniform random latency in [0, jitter)")
	failRate := pflag.Float64("fail-rate", 0, "Fraction of / requests answered with 503")
	pflag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}
	if *failRate < 0 || *failRate > 1 {
		log.Fatalf("fail-rate must be between 0 and 1")
	}

	s := &server{status: *status, latency: *latency, jitter: *jitter, failRate: *failRate}
	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test server listening on %s (status %d, latency %s, jitter %s, fail-rate %.2f)",
		addr, s.status, s.latency, s.jitter, s.failRate)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status/{code}", s.handleStatus)
	mux.HandleFunc("GET /delay/{ms}", s.handleDelay)
	mux.HandleFunc("/echo", s.handleEcho)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("/", s.handleDefault)
	return mux
}

func (s *server) pause() {
	d := s.latency
	if s.jitter > 0 {
		d += rand.N(s.jitter)
	}
	if d > 0 {
		time.Sleep(d)
	}
}

func (s *server) handleDefault(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	s.pause()
	status := s.status
	if s.failRate > 0 && rand.Float64() < s.failRate {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, map[string]any{"path": r.URL.Path, "status": status})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || code < 100 || code > 999 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid status code"})
		return
	}
	s.pause()
	respondJSON(w, code, map[string]any{"status": code})
}

func (s *server) handleDelay(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	ms, err := strconv.Atoi(r.PathValue("ms"))
	if err != nil || ms < 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid delay"})
		return
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-r.Context().Done():
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"delay_ms": ms})
}

func (s *server) handleEcho(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	respondJSON(w, http.StatusOK, map[string]any{
		"method":       r.Method,
		"content_type": r.Header.Get("Content-Type"),
		"traceparent":  r.Header.Get("Traceparent"),
		"body":         string(body),
	})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"hits": s.hits.Load()})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
