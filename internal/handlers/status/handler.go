package status

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/ddpbfs.net/internal/coordinator"
	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/ports/secondary"
	"gitlab.com/ddpbfs.net/internal/domain"
	"gitlab.com/ddpbfs.net/internal/handlers"
	"gitlab.com/ddpbfs.net/internal/handlers/response"
)

// Session is the read side of a running coordinator
type Session interface {
	Status() coordinator.Status
	Clients() []domain.ClientRecord
}

// StatusResponse is served by GET /api/status
type StatusResponse struct {
	Timestamp time.Time          `json:"timestamp"`
	Session   coordinator.Status `json:"session"`
	System    SystemStats        `json:"system"`
}

type ApiHandler struct {
	Session Session
	Mirror  secondary.ClientRepository
	logger  primary.Logger
}

// NewHandler creates the status handler. mirror may be nil.
func NewHandler(session Session, mirror secondary.ClientRepository, logger primary.Logger) *ApiHandler {
	return &ApiHandler{
		Session: session,
		Mirror:  mirror,
		logger:  logger,
	}
}

func (api *ApiHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/status", api.GetStatus).Methods("GET")
	r.HandleFunc("/api/clients", api.GetClients).Methods("GET")
	r.HandleFunc("/api/clients/{clientId}", api.GetClient).Methods("GET")
}

func (api *ApiHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	handlers.ResponseWithJson(w, http.StatusOK, StatusResponse{
		Timestamp: time.Now(),
		Session:   api.Session.Status(),
		System:    ReadSystemStats(r.Context()),
	})
}

// GetClients lists the registry, or the mirrored records with ?source=mirror
func (api *ApiHandler) GetClients(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("source") != "mirror" {
		handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.ClientRecord{"clients": api.Session.Clients()})
		return
	}

	if api.Mirror == nil {
		handlers.ResponseError(w, "client mirror is not configured", http.StatusServiceUnavailable)
		return
	}
	clients, err := api.Mirror.GetAllClients(r.Context())
	if err != nil {
		api.logger.Error("Failed to read mirrored clients", "error", err)
		handlers.ResponseError(w, "Failed to get clients", http.StatusBadGateway)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, map[string][]domain.ClientRecord{"clients": clients})
}

func (api *ApiHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientId"]
	for _, c := range api.Session.Clients() {
		if c.ID == clientID {
			handlers.ResponseWithJson(w, http.StatusOK, c)
			return
		}
	}
	response.NotFound(w, "client not found: "+clientID)
}
