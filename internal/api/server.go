// Package api implements NodeAPI (spec §4.6): the IS-04 Node API v1.3
// read-only surface and the IS-05 Connection API v1.1 read/patch surface,
// plus the node's Prometheus /metrics endpoint. TRACE requests are rejected
// with 405, matching the teacher's layered middleware chain of CORS →
// logging → routing.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/NVIDIA/nvnmos/internal/connection"
	"github.com/NVIDIA/nvnmos/internal/logging"
	"github.com/NVIDIA/nvnmos/internal/resource"
)

const (
	is04Base = "/x-nmos/node/v1.3"
	is05Base = "/x-nmos/connection/v1.1/single"
)

// Server is the NodeAPI HTTP server: a Huma v2 API layered over the node's
// two ResourceStores (spec §4.3) and its ConnectionEngine (spec §4.5).
type Server struct {
	api       huma.API
	mux       *http.ServeMux
	httpSrv   *http.Server
	store     *resource.Store
	connStore *resource.Store
	engine    *connection.Engine
	options   *Options
	logger    *slog.Logger
}

// Options configures a Server. PrometheusHandler is optional; when nil no
// /metrics route is mounted.
type Options struct {
	Addr              string
	Store             *resource.Store
	ConnStore         *resource.Store
	Engine            *connection.Engine
	PrometheusHandler http.Handler
}

// NewServer wires up the mux, CORS, logging, TRACE-rejection, and
// Prometheus handler exactly the way the teacher's server.go orders its
// middleware chain, then registers every NodeAPI route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("NMOS Node API", "1.3.0")
	config.Info.Description = "IS-04 Node API and IS-05 Connection API surface for an embedded NMOS node"
	config.Servers = []*huma.Server{}

	humaAPI := humago.New(mux, config)

	s := &Server{
		api:       humaAPI,
		mux:       mux,
		store:     opts.Store,
		connStore: opts.ConnStore,
		engine:    opts.Engine,
		options:   opts,
		logger:    logging.GetLogger("api"),
	}

	humaAPI.UseMiddleware(NewCORSMiddleware(corsConfig))
	humaAPI.UseMiddleware(HTTPLoggingMiddleware)
	humaAPI.UseMiddleware(s.rejectTraceMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s.registerRoutes()
	return s
}

// rejectTraceMiddleware answers every TRACE request with 405 before it
// reaches routing (spec §4.6: "TRACE is not permitted; respond 405").
func (s *Server) rejectTraceMiddleware(ctx huma.Context, next func(huma.Context)) {
	if ctx.Method() == http.MethodTrace {
		huma.WriteErr(s.api, ctx, http.StatusMethodNotAllowed, "TRACE is not permitted")
		return
	}
	next(ctx)
}

// GetMux returns the underlying ServeMux for additional wiring (tests,
// embedding a reverse proxy in front of it, etc).
func (s *Server) GetMux() *http.ServeMux { return s.mux }

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API { return s.api }

// Start serves NodeAPI on opts.Addr until the process is stopped.
func (s *Server) Start() error {
	s.logger.Info("starting NodeAPI", "addr", s.options.Addr)
	s.httpSrv = &http.Server{Addr: s.options.Addr, Handler: s.mux}
	return s.httpSrv.ListenAndServe()
}

// Stop closes the listener immediately, matching the teacher's
// fire-and-forget shutdown (no graceful drain — the embedding host owns
// process lifetime).
func (s *Server) Stop() error {
	s.logger.Info("stopping NodeAPI")
	if s.httpSrv != nil {
		return s.httpSrv.Close()
	}
	return nil
}

// registerRoutes mounts the IS-04 and IS-05 route groups.
func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "is04-root",
		Method:      http.MethodGet,
		Path:        is04Base + "/",
		Summary:     "IS-04 Node API resource types",
		Tags:        []string{"node"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*ResourceListResponse, error) {
		return &ResourceListResponse{Body: []string{
			"self/", "devices/", "sources/", "flows/", "senders/", "receivers/",
		}}, nil
	})

	s.registerNodeRoutes()
	s.registerDeviceRoutes()
	s.registerSourceRoutes()
	s.registerFlowRoutes()
	s.registerSenderRoutes()
	s.registerReceiverRoutes()
	s.registerConnectionRoutes()
}

// ResourceListResponse wraps a plain string collection — IS-04's
// directory-listing responses (spec §4.6 "collection listings").
type ResourceListResponse struct {
	Body []string
}

// idsOf returns every resource id of type t in the node's ResourceStore, in
// whatever order Store.Iter yields them (spec §4.6: "insertion-order-
// independent JSON order").
func idsOf(store *resource.Store, t resource.Type) []string {
	resources := store.Iter(t)
	ids := make([]string, len(resources))
	for i, r := range resources {
		ids[i] = r.Envelope().ID
	}
	return ids
}

func notFoundErr(kind, id string) error {
	return huma.Error404NotFound(kind + " " + id + " not found")
}
