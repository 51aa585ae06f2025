package relay

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/iksnae/tropedeck/internal"
)

const (
	encounterSystemPrompt = "You are an expert tabletop Dungeon Master and encounter designer. " +
		"Create a detailed, ready-to-run encounter with descriptions, NPC details, combat notes and loot. " +
		"Use markdown headers, tables for adversaries and loot, and blockquotes for read-aloud text."
	campaignSystemPrompt = "You are an expert tabletop campaign designer. " +
		"Create a ready-to-run campaign arc with adventure hooks, villains, factions, key locations, NPCs and key scenes. " +
		"Use markdown headers, bullet lists and tables where they help."
	oneShotSystemPrompt = "You are an expert tabletop one-shot designer. " +
		"Create an adventure that can be completed in a single session, with a hook, three to five scenes and a climax. " +
		"Use markdown headers and keep it concise enough for live play."
)

// ServerConfig configures the relay server.
type ServerConfig struct {
	APIKey       string
	MaxTokens    int
	Temperature  float64
	AllowOrigins []string
}

// Server exposes the generation endpoints over HTTP.
type Server struct {
	cfg      ServerConfig
	upstream Completer
}

// NewServer creates a relay server that forwards to upstream.
func NewServer(cfg ServerConfig, upstream Completer) *Server {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	return &Server{cfg: cfg, upstream: upstream}
}

// GenerateRequest is the body accepted by both generation endpoints.
type GenerateRequest struct {
	Prompt        string `json:"prompt"`
	AdventureType string `json:"adventureType,omitempty"`
}

// GenerateResponse carries either the generated content or an error.
type GenerateResponse struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
	}
	if len(s.cfg.AllowOrigins) == 0 || (len(s.cfg.AllowOrigins) == 1 && s.cfg.AllowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET(HealthPath, s.health)
	router.POST(EncounterPath, s.generate(func(GenerateRequest) string { return encounterSystemPrompt }))
	router.POST(AdventurePath, s.generate(func(req GenerateRequest) string {
		if req.AdventureType == "campaign" {
			return campaignSystemPrompt
		}
		return oneShotSystemPrompt
	}))
	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "upstreamConfigured": s.cfg.APIKey != ""})
}

func (s *Server) generate(systemFor func(GenerateRequest) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
			c.JSON(http.StatusBadRequest, GenerateResponse{Error: "Prompt is required"})
			return
		}
		if s.cfg.APIKey == "" {
			internal.LogError("Relay has no API key configured")
			c.JSON(http.StatusInternalServerError, GenerateResponse{Error: "API key is not configured"})
			return
		}

		internal.LogInfo("%s: prompt length %d", c.FullPath(), len(req.Prompt))
		content, err := s.upstream.Complete(c.Request.Context(), CompletionRequest{
			System:      systemFor(req),
			Prompt:      req.Prompt,
			MaxTokens:   s.cfg.MaxTokens,
			Temperature: s.cfg.Temperature,
		})
		if err != nil {
			status, msg := mapUpstreamError(err)
			internal.LogWarn("%s failed: %v", c.FullPath(), err)
			c.JSON(status, GenerateResponse{Error: msg})
			return
		}
		c.JSON(http.StatusOK, GenerateResponse{Content: content})
	}
}

// mapUpstreamError turns an upstream failure into a status and a message
// fit for end users.
func mapUpstreamError(err error) (int, string) {
	var upErr *UpstreamError
	switch {
	case errors.As(err, &upErr):
		switch {
		case upErr.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized, "Invalid API key. Please update your API key and try again."
		case upErr.Status == http.StatusTooManyRequests && upErr.Code == "insufficient_quota":
			return http.StatusTooManyRequests, "Quota exceeded. Please add billing or credits to your account."
		case upErr.Status == http.StatusTooManyRequests:
			if upErr.Message != "" {
				return http.StatusTooManyRequests, upErr.Message
			}
			return http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment."
		case upErr.Message != "":
			return upErr.Status, upErr.Message
		default:
			return upErr.Status, "Failed to generate content"
		}
	case errors.Is(err, ErrNoContent):
		return http.StatusInternalServerError, "No content generated"
	default:
		return http.StatusBadGateway, err.Error()
	}
}
