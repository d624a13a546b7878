// Command mtconnect-client runs a long-lived MTConnect client against the
// agent named by configuration, logging the events it receives and
// exposing an admin HTTP surface for health and metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mtconnect "github.com/mtconnect-go/client"
	"github.com/mtconnect-go/client/agent"
	"github.com/mtconnect-go/client/config"
	"github.com/mtconnect-go/client/logging"
	"github.com/mtconnect-go/client/mtcerr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.Print()

	client, err := mtconnect.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: %v\n", err)
		os.Exit(1)
	}

	status := newStatusTracker()
	client.OnProbeReceived(func(doc *agent.DevicesDocument) {
		status.recordProbe(doc)
		fmt.Printf("ProbeReceived: instance_id=%d\n", doc.Header.InstanceID)
	})
	client.OnCurrentReceived(func(doc *agent.StreamsDocument) {
		status.recordCurrent(doc)
		fmt.Printf("CurrentReceived: instance_id=%d next_sequence=%d\n", doc.Header.InstanceID, doc.Header.NextSequence)
	})
	client.OnSampleReceived(func(doc *agent.StreamsDocument) {
		status.recordSample(doc)
	})
	client.OnAssetsReceived(func(doc *agent.AssetsDocument) {
		fmt.Printf("AssetsReceived: instance_id=%d\n", doc.Header.InstanceID)
	})
	client.OnError(func(doc *agent.ErrorDocument) {
		for _, e := range doc.Errors {
			fmt.Fprintf(os.Stderr, "MTConnectError: %s: %s\n", e.ErrorCode, e.Message)
		}
	})
	client.OnConnectionError(func(f *mtcerr.Failure) {
		fmt.Fprintf(os.Stderr, "ConnectionError: %v\n", f)
	})
	client.OnXMLError(func(payload []byte) {
		fmt.Fprintf(os.Stderr, "XmlError: %d bytes unparseable\n", len(payload))
	})
	client.OnStarted(func() { fmt.Println("session loop started") })
	client.OnStopped(func() { fmt.Println("session loop stopped") })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client.Start(ctx)

	addr := os.Getenv("MTC_ADMIN_ADDR")
	if addr == "" {
		addr = ":9110"
	}
	adminLogger := logging.New(logging.ParseLogLevel(cfg.Resilience.LogLevel), "[admin]")
	adminServer := &http.Server{Addr: addr, Handler: newAdminRouter(status, adminLogger)}
	go func() {
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "admin server: %v\n", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("shutting down")
	client.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()
	_ = adminServer.Shutdown(shutdownCtx)
}

func newAdminRouter(status *statusTracker, logger *logging.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.HandleFunc("/status", status.handle)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.WriteJSONError(w, logger, "not found", http.StatusNotFound, map[string]interface{}{"path": r.URL.Path})
	})
	return r
}
