package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/janzheng/mailcheck/internal/core"
	"github.com/janzheng/mailcheck/internal/jobs"
	"go.uber.org/zap"
)

// CheckHandler handles single and batch check requests.
type CheckHandler struct {
	checker      *core.CheckerService
	registry     *jobs.Registry
	serverAPIKey string
	logger       *zap.Logger
}

// NewCheckHandler creates a new CheckHandler.
func NewCheckHandler(checker *core.CheckerService, registry *jobs.Registry, serverAPIKey string, logger *zap.Logger) *CheckHandler {
	return &CheckHandler{checker: checker, registry: registry, serverAPIKey: serverAPIKey, logger: logger}
}

type checkRequest struct {
	Email             string   `json:"email"`
	ExtraInstructions string   `json:"extraInstructions"`
	Allowlist         []string `json:"allowlist"`
	Blocklist         []string `json:"blocklist"`
	UserAPIKey        string   `json:"userApiKey"`
}

type jobItem struct {
	Email string `json:"email"`
}

type createJobRequest struct {
	Items             []jobItem `json:"items"`
	ExtraInstructions string    `json:"extraInstructions"`
	Allowlist         []string  `json:"allowlist"`
	Blocklist         []string  `json:"blocklist"`
	Concurrency       int       `json:"concurrency"`
	UserAPIKey        string    `json:"userApiKey"`
}

// resolveAPIKey prefers the server key over the caller's.
func (h *CheckHandler) resolveAPIKey(userKey string) string {
	if h.serverAPIKey != "" {
		return h.serverAPIKey
	}
	return userKey
}

// HasKey reports whether the server carries its own API key.
func (h *CheckHandler) HasKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hasServerKey": h.serverAPIKey != ""})
}

// Check evaluates a single address.
func (h *CheckHandler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}
	apiKey := h.resolveAPIKey(req.UserAPIKey)
	if apiKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No Groq API key available."})
		return
	}

	result := h.checker.Check(c.Request.Context(), core.AssessRequest{
		APIKey:            apiKey,
		Email:             email,
		ExtraInstructions: req.ExtraInstructions,
		Allowlist:         req.Allowlist,
		Blocklist:         req.Blocklist,
	})
	RecordCheck(string(result.Status))

	c.JSON(http.StatusOK, result)
}

// CreateJob registers a batch job and starts it in the background.
func (h *CheckHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	apiKey := h.resolveAPIKey(req.UserAPIKey)
	if apiKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No Groq API key available."})
		return
	}

	emails := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		emails = append(emails, it.Email)
	}

	summary, err := h.registry.Create(jobs.CreateRequest{
		Emails:            emails,
		APIKey:            apiKey,
		ExtraInstructions: req.ExtraInstructions,
		Allowlist:         req.Allowlist,
		Blocklist:         req.Blocklist,
		Concurrency:       req.Concurrency,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	RecordJobCreated()

	c.JSON(http.StatusOK, summary)
}

// ListJobs returns snapshots of all known jobs.
func (h *CheckHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.registry.List()})
}

// GetJob returns the snapshot of one job.
func (h *CheckHandler) GetJob(c *gin.Context) {
	summary, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CancelJob marks a job cancelled.
func (h *CheckHandler) CancelJob(c *gin.Context) {
	summary, ok := h.registry.Cancel(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
