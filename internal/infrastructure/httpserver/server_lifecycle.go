package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Start serves until Shutdown is called. A graceful shutdown returns nil.
// With a certificate pair configured the same server runs over TLS, so the
// configured timeouts apply in both modes.
func (s *Server) Start() error {
	s.LogMetricsInitialization()

	srv := &http.Server{
		Addr:         net.JoinHostPort(s.config.Host, s.config.Port),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	useTLS := s.config.TLSCertFile != "" && s.config.TLSKeyFile != ""
	if useTLS {
		cert, err := tls.LoadX509KeyPair(s.config.TLSCertFile, s.config.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("load TLS key pair: %w", err)
		}
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}

	fields := logrus.Fields{"addr": srv.Addr, "tls": useTLS}
	if !useTLS {
		s.logger.WithFields(fields).Warn("TLS certificates not configured, serving plain HTTP")
	}
	s.logger.WithFields(fields).Info("Starting HTTP server")

	if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr is the bound listener address, or nil before Start has bound it.
func (s *Server) Addr() net.Addr {
	if a := s.echo.TLSListenerAddr(); a != nil {
		return a
	}
	return s.echo.ListenerAddr()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
