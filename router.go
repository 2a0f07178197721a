package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/groupzer0/flowbaby/pkg/handler"
	"github.com/groupzer0/flowbaby/pkg/service"
	"github.com/groupzer0/flowbaby/pkg/utils"
)

type Server struct {
	ginEngine      *gin.Engine
	logger         *slog.Logger
	summaryService *service.SummaryService
	port           int
}

func NewServer(summaryService *service.SummaryService) *Server {
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	// CORS middleware: the API is bound locally, so only localhost dev
	// origins are allowed.
	ginEngine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If there's no Origin header, it's not a browser CORS request.
		if origin != "" {
			allowed := strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "https://127.0.0.1")

			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			} else {
				// Reject unknown origins.
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	server := &Server{
		ginEngine:      ginEngine,
		logger:         utils.GetLogger(),
		summaryService: summaryService,
		port:           0,
	}

	server.SetupRoutes()

	return server
}

func (s *Server) Start(ctx context.Context, defaultPort int) error {
	// FLOWBABY_PORT overrides the configured port
	port := defaultPort
	if v := os.Getenv("FLOWBABY_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			port = p
		} else {
			s.logger.Warn("Invalid FLOWBABY_PORT value, falling back to default", "value", v)
		}
	}

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: s.ginEngine}

	// Attempt to listen on port first; if occupied return error immediately
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	} else {
		s.port = port
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	// Listen for context cancellation for graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Non-blocking: if startup fails immediately return error; otherwise return nil
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	default:
	}

	s.logger.Info("Server started", "port", s.port)
	return nil
}

func (s *Server) SetupRoutes() {
	summaryHandler := handler.NewSummaryHandler(s.summaryService)

	// API group
	// /api
	apiGroup := s.ginEngine.Group("/api")

	apiGroup.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Summary management API routes
	// /api/workspaces/:id/summaries
	summaryHandler.RegisterRoutes(apiGroup)
}
