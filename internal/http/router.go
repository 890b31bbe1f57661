package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const apiPrefix = "/cognify/api/v1"

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
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

// RegisterPatientRoutes 病人档案路由
func (r *Router) RegisterPatientRoutes(h *PatientHandler) {
	r.Handle(apiPrefix+"/patients", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Enroll(w, req)
	})

	// patients/{id} 与 patients/{id}/progress
	r.Handle(apiPrefix+"/patients/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, apiPrefix+"/patients/")
		switch {
		case rest != "" && !strings.Contains(rest, "/"):
			h.Get(w, req, rest)
		case strings.HasSuffix(rest, "/progress"):
			id := strings.TrimSuffix(rest, "/progress")
			if id == "" || strings.Contains(id, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.Progress(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterSessionRoutes 游戏会话路由 sessions/{game}/{action}
func (r *Router) RegisterSessionRoutes(h *SessionHandler) {
	r.Handle(apiPrefix+"/sessions/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, apiPrefix+"/sessions/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Dispatch(w, req, parts[0], parts[1])
	})
}

// RegisterReportRoutes 报告路由 reports/{id}/{view}
func (r *Router) RegisterReportRoutes(h *ReportHandler) {
	r.Handle(apiPrefix+"/reports/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, apiPrefix+"/reports/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Dispatch(w, req, parts[0], parts[1])
	})
}
