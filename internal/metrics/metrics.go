// Package metrics exposes monitor state in the Prometheus text format.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/amenongit/aranealarm-go/internal/config"
	"github.com/amenongit/aranealarm-go/internal/engine"
)

// Source yields the current monitor state; satisfied by engine.Engine.
type Source interface {
	Snapshot() engine.Snapshot
}

// Server renders a snapshot per scrape.
type Server struct {
	mode   config.MetricsMode
	source Source
}

// NewServer constructs a metrics server.
func NewServer(mode config.MetricsMode, source Source) *Server {
	return &Server{mode: mode, source: source}
}

// Handler returns an http handler that serves metrics.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		bw := bufio.NewWriter(w)
		defer bw.Flush()
		s.writeMetrics(bw)
	})
}

func (s *Server) writeMetrics(w *bufio.Writer) {
	snapshot := s.source.Snapshot()
	if s.mode == "" {
		return
	}

	if s.mode == config.MetricsModeAggregated || s.mode == config.MetricsModeBoth {
		writeAggregated(w, snapshot)
	}
	if s.mode == config.MetricsModePerNode || s.mode == config.MetricsModeBoth {
		writePerNode(w, snapshot)
	}
}

func writeAggregated(w *bufio.Writer, snapshot engine.Snapshot) {
	total := len(snapshot.Nodes)
	connected := 0
	for _, n := range snapshot.Nodes {
		if n.Connected {
			connected++
		}
	}
	alarm := 0
	if snapshot.Disconnects > 0 {
		alarm = 1
	}
	fmt.Fprintf(w, "aranealarm_nodes_total %d\n", total)
	fmt.Fprintf(w, "aranealarm_nodes_connected %d\n", connected)
	fmt.Fprintf(w, "aranealarm_nodes_disconnected %d\n", total-connected)
	fmt.Fprintf(w, "aranealarm_pass_number %d\n", snapshot.Pass)
	fmt.Fprintf(w, "aranealarm_alarm %d\n", alarm)
}

func writePerNode(w *bufio.Writer, snapshot engine.Snapshot) {
	for _, n := range snapshot.Nodes {
		labels := fmt.Sprintf(
			"node=%q,address=%q",
			escapeLabel(n.Name),
			escapeLabel(n.Address),
		)
		up := 0
		if n.Connected {
			up = 1
		}
		fmt.Fprintf(w, "aranealarm_node_up{%s} %d\n", labels, up)
		if n.ResponseTime != engine.Unset {
			fmt.Fprintf(w, "aranealarm_node_response_ms{%s} %d\n", labels, n.ResponseTime)
		}
		fmt.Fprintf(w, "aranealarm_node_issues_total{%s} %d\n", labels, n.Issues)
	}
}

func escapeLabel(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}

// Serve starts an HTTP server and blocks until context cancellation.
func Serve(ctx context.Context, addr string, mode config.MetricsMode, source Source) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", NewServer(mode, source).Handler())
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return context.Canceled
		}
		return err
	}
}
