package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type Server struct {
	http *http.Server
	log  *zap.Logger
}

func New(addr string, h http.Handler, log *zap.Logger) *Server {
	return &Server{
		http: &http.Server{Addr: addr, Handler: h},
		log:  log,
	}
}

func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("http server stopping")
	return s.http.Shutdown(ctx)
}
