package server

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"chat-relay/internal/session"
)

// Server is the HTTP gateway in front of the session service. The
// failure contract is binary: any Ask error surfaces as one generic
// 500; error kinds stay internal.
type Server struct {
	echo *echo.Echo
	svc  *session.Service
}

type askRequest struct {
	Prompt string `json:"prompt"`
	UserID string `json:"userId"`
}

type historyRequest struct {
	UserID string `json:"userId"`
}

func New(svc *session.Service, allowedOrigins []string) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	cors := middleware.DefaultCORSConfig
	if len(allowedOrigins) > 0 {
		cors.AllowOrigins = allowedOrigins
		cors.AllowCredentials = true
	}
	cors.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	cors.AllowHeaders = []string{echo.HeaderContentType, echo.HeaderAuthorization}
	e.Use(middleware.CORSWithConfig(cors))

	s := &Server{echo: e, svc: svc}
	e.POST("/ask", s.handleAsk)
	e.POST("/history", s.handleHistory)
	e.GET("/health", s.handleHealth)
	return s
}

func (s *Server) Start(addr string) error { return s.echo.Start(addr) }

func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Prompt == "" || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prompt and userId are required"})
	}

	reply, err := s.svc.Ask(c.Request().Context(), req.UserID, req.Prompt)
	if err != nil {
		log.Printf("ask failed for user %s: %v", req.UserID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "AI request failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reply": reply})
}

func (s *Server) handleHistory(c echo.Context) error {
	var req historyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
	}

	msgs, err := s.svc.History(c.Request().Context(), req.UserID)
	if err != nil {
		log.Printf("history failed for user %s: %v", req.UserID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load chat history"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK", "message": "Server is running"})
}
