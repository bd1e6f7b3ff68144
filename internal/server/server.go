package server

import (
	"net/http"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/searcher"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/storage"
)

type Server struct {
	Searcher *searcher.Searcher
	DB       *storage.DB
	Username string
	Password string
}

func New(s *searcher.Searcher, db *storage.DB, user, pass string) *Server {
	return &Server{
		Searcher: s,
		DB:       db,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/search/stream", s.basicAuth(s.handleStream))
	mux.HandleFunc("POST /api/search/start", s.basicAuth(s.handleStart))
	mux.HandleFunc("GET /api/search/status", s.basicAuth(s.handleStatus))
	mux.HandleFunc("GET /api/results", s.basicAuth(s.handleResults))

	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
