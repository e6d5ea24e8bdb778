package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"github.com/bbayvault/vault-rbac-processor/global"
)

var logger hclog.Logger

func init() {
	logger = global.Logger().Named("server")
}

type Server struct {
	Router *mux.Router
	srv    *http.Server
}

// New wires the trigger endpoint. The write timeout must outlast the run
// deadline so a slow reconciliation still gets its response out.
func New(addr string, assignRoles *AssignRolesHandler, runTimeout time.Duration) *Server {
	router := mux.NewRouter()
	router.Handle("/assign-roles", assignRoles).Methods(http.MethodPost)

	srv := &http.Server{
		Handler:      handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, router)),
		Addr:         addr,
		WriteTimeout: runTimeout + 15*time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{Router: router, srv: srv}
}

func (s *Server) Start() error {
	logger.Info(fmt.Sprintf("Listening on %s", s.srv.Addr))

	return s.srv.ListenAndServe()
}
