// Package httpadmin expone el plano de control del bot: health para el
// balanceador y recarga de admins globales sin reiniciar el proceso.
package httpadmin

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jose-valero/groupguard-bot/internal/app/service"
)

type Server struct {
	addr   string
	secret string
	groups *service.GroupService
}

func New(addr, secret string, groups *service.GroupService) *Server {
	return &Server{addr: addr, secret: secret, groups: groups}
}

func (s *Server) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/admin/reload-admins", s.handleReloadAdmins)

	log.Printf("🌐 http admin escuchando en %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /admin/reload-admins  {"admins": ["id1","id2"]}
// Header X-Admin-Secret obligatorio. Reemplaza la lista completa.
func (s *Server) handleReloadAdmins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.secret == "" || r.Header.Get("X-Admin-Secret") != s.secret {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		Admins []string `json:"admins"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	s.groups.SetGlobalAdmins(body.Admins)
	log.Printf("🔑 admins globales recargados (%d)", len(body.Admins))
	w.WriteHeader(http.StatusNoContent)
}
