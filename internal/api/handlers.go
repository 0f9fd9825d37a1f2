package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scooterswap/internal/manager"
	"scooterswap/internal/simconfig"
)

// Handler wires the /api/v1 route table to a single Manager instance.
type Handler struct {
	mgr *manager.Manager
}

// NewHandler constructs a Handler bound to mgr.
func NewHandler(mgr *manager.Manager) *Handler {
	return &Handler{mgr: mgr}
}

// Register mounts every route spec.md's control-API table describes,
// plus /health, onto router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", h.getStatus)
		v1.GET("/snapshot", h.getSnapshot)
		v1.POST("/start", h.postStart)
		v1.POST("/pause", h.postPause)
		v1.POST("/resume", h.postResume)
		v1.POST("/stop", h.postStop)
		v1.POST("/reset", h.postReset)
		v1.PATCH("/speed", h.patchSpeed)
		v1.POST("/step", h.postStep)
		v1.GET("/config", h.getConfig)
		v1.PUT("/config", h.putConfig)
		v1.POST("/config/validate", h.postConfigValidate)
		v1.GET("/metrics/current", h.getMetricsCurrent)
		v1.GET("/metrics/summary", h.getMetricsSummary)
	}
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.StatusInfo())
}

func (h *Handler) getSnapshot(c *gin.Context) {
	world := h.mgr.Snapshot()
	if world == nil {
		errorResponse(c, http.StatusNotFound, "NO_SIMULATION", "simulation has never been initialized")
		return
	}
	info := h.mgr.StatusInfo()
	c.JSON(http.StatusOK, BuildSnapshot(world, info.Tick, info.Status))
}

func (h *Handler) postStart(c *gin.Context) {
	sessionID, err := h.mgr.Start()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, startErrorCode(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "status": h.mgr.Status().String()})
}

func startErrorCode(err error) string {
	switch {
	case errors.Is(err, manager.ErrNoConfig):
		return "NO_CONFIG"
	case errors.Is(err, manager.ErrAlreadyRunning):
		return "ALREADY_RUNNING"
	default:
		return "BAD_REQUEST"
	}
}

func (h *Handler) postPause(c *gin.Context) {
	if err := h.mgr.Pause(); err != nil {
		errorResponse(c, http.StatusBadRequest, "ILLEGAL_TRANSITION", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.mgr.Status().String()})
}

func (h *Handler) postResume(c *gin.Context) {
	if err := h.mgr.Resume(); err != nil {
		errorResponse(c, http.StatusBadRequest, "ILLEGAL_TRANSITION", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.mgr.Status().String()})
}

func (h *Handler) postStop(c *gin.Context) {
	if err := h.mgr.Stop(); err != nil {
		errorResponse(c, http.StatusBadRequest, "ILLEGAL_TRANSITION", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.mgr.Status().String()})
}

func (h *Handler) postReset(c *gin.Context) {
	if err := h.mgr.Reset(); err != nil {
		errorResponse(c, http.StatusBadRequest, "ILLEGAL_TRANSITION", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.mgr.Status().String()})
}

type speedRequest struct {
	SpeedMultiplier float64 `json:"speed_multiplier"`
}

func (h *Handler) patchSpeed(c *gin.Context) {
	var req speedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, "INVALID_SPEED", err.Error())
		return
	}
	if req.SpeedMultiplier < 0.1 || req.SpeedMultiplier > 100 {
		errorResponse(c, http.StatusUnprocessableEntity, "OUT_OF_RANGE", "speed_multiplier must be in [0.1, 100]")
		return
	}
	h.mgr.SetSpeed(req.SpeedMultiplier)
	c.JSON(http.StatusOK, gin.H{"status": h.mgr.Status().String()})
}

func (h *Handler) postStep(c *gin.Context) {
	executed, err := h.mgr.Step()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "NO_ENGINE", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"executed": executed, "status": h.mgr.Status().String()})
}

func (h *Handler) getConfig(c *gin.Context) {
	cfg := h.mgr.Config()
	if cfg == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) putConfig(c *gin.Context) {
	cfg := simconfig.Default()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		errorResponse(c, http.StatusBadRequest, "INVALID_CONFIG", errs[0].Error())
		return
	}
	if err := h.mgr.SetConfig(&cfg); err != nil {
		errorResponse(c, http.StatusBadRequest, "BUSY", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "configured"})
}

type validateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (h *Handler) postConfigValidate(c *gin.Context) {
	cfg := simconfig.Default()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusOK, validateResponse{Valid: false, Errors: []string{err.Error()}})
		return
	}
	errs := cfg.Validate()
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Error()
	}
	c.JSON(http.StatusOK, validateResponse{Valid: len(errs) == 0, Errors: messages})
}

func (h *Handler) getMetricsCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.MetricsCurrent())
}

func (h *Handler) getMetricsSummary(c *gin.Context) {
	if h.mgr.Config() == nil {
		errorResponse(c, http.StatusNotFound, "NO_RUN", "no simulation has been run")
		return
	}
	c.JSON(http.StatusOK, h.mgr.MetricsSummary())
}
