package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterBedRoutes wires the dashboard/bed surface.
func (r *Router) RegisterBedRoutes(b *BedHandler) {
	r.Handle("/api/v1/beds", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		b.ListBeds(w, req)
	})

	// /api/v1/beds/{id}[/action]
	r.Handle("/api/v1/beds/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/beds/")
		parts := strings.Split(rest, "/")
		if len(parts) == 0 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		bedID, err := strconv.Atoi(parts[0])
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("bed id must be an integer"))
			return
		}

		action := strings.Join(parts[1:], "/")
		switch {
		case action == "" && req.Method == http.MethodGet:
			b.GetBed(w, req, bedID)
		case action == "sync" && req.Method == http.MethodPost:
			b.SyncBed(w, req, bedID)
		case action == "connectivity" && req.Method == http.MethodPut:
			b.SetConnectivity(w, req, bedID)
		case action == "export" && req.Method == http.MethodGet:
			b.ExportBed(w, req, bedID)
		case action == "export/xlsx" && req.Method == http.MethodGet:
			b.ExportTrendXLSX(w, req, bedID)
		case action == "alarms/recent" && req.Method == http.MethodGet:
			b.RecentAlarms(w, req, bedID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterExchangeRoutes wires the import/export message surface.
func (r *Router) RegisterExchangeRoutes(e *ExchangeHandler) {
	r.Handle("/api/v1/messages", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			e.ListMessages(w, req)
		case http.MethodPost:
			e.ImportMessage(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/v1/messages/process", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		e.ProcessMessages(w, req)
	})
}
