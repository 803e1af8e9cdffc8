package network

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghostguild/ghg-server/internal/domain/catalog"
	"github.com/ghostguild/ghg-server/internal/engine"
	"github.com/ghostguild/ghg-server/internal/guild"
	"github.com/ghostguild/ghg-server/internal/infra/storage"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
	"github.com/ghostguild/ghg-server/internal/platform/metrics"
)

const requestTimeout = 5 * time.Second

// API is the HTTP surface: encounter control, guild screens, history.
type API struct {
	engine        *engine.Engine
	guild         *guild.Service
	reconstructor *storage.Reconstructor
	hub           *Hub
	replay        *ReplayHandler
	userID        string
	logger        *logger.Logger
	metrics       *metrics.Collector
}

// NewAPI wires the handlers. reconstructor may be nil when no history
// store is configured; /api/career then answers 503.
func NewAPI(eng *engine.Engine, svc *guild.Service, rec *storage.Reconstructor, hub *Hub, userID string, log *logger.Logger, m *metrics.Collector) *API {
	if m == nil {
		m = metrics.Get()
	}
	return &API{
		engine:        eng,
		guild:         svc,
		reconstructor: rec,
		hub:           hub,
		replay:        NewReplayHandler(eng.EventLog(), log),
		userID:        userID,
		logger:        log,
		metrics:       m,
	}
}

// Router builds the gin engine.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if a.hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			a.hub.ServeWS(c.Writer, c.Request)
		})
	}

	api := r.Group("/api")
	{
		api.GET("/catalog", a.handleCatalog)

		enc := api.Group("/encounter")
		{
			enc.GET("", a.handleSnapshot)
			enc.POST("/start", a.handleStart)
			enc.POST("/reset", a.handleReset)
		}

		api.GET("/profile", a.handleProfile)
		api.POST("/skills/:id/upgrade", a.handleUpgradeSkill)
		api.POST("/recipes/:id/craft", a.handleCraft)
		api.POST("/equipment/:id/equip", a.handleEquip)
		api.GET("/career", a.handleCareer)

		api.GET("/metrics", func(c *gin.Context) {
			c.JSON(http.StatusOK, a.metrics.Snapshot())
		})
		api.GET("/metrics/prometheus", gin.WrapF(a.metrics.PrometheusHandler()))

		a.replay.RegisterRoutes(api)
	}
	return r
}

func (a *API) handleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"hunters":   catalog.Hunters,
		"weapons":   catalog.Weapons,
		"shields":   catalog.Shields,
		"locations": catalog.Locations,
	})
}

func (a *API) handleStart(c *gin.Context) {
	var req engine.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	snap, err := a.engine.StartEncounter(ctx, req)
	if err != nil {
		a.fail(c, err)
		return
	}
	a.logger.Event("ENCOUNTER_START", snap.SessionID, req.HunterID+" @ "+req.LocationID)
	c.JSON(http.StatusOK, snap)
}

func (a *API) handleReset(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	snap, err := a.engine.Reset(ctx)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *API) handleSnapshot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	snap, err := a.engine.Snapshot(ctx)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *API) handleProfile(c *gin.Context) {
	c.JSON(http.StatusOK, a.guild.LoadProfile(c.Request.Context(), a.userID))
}

func (a *API) handleUpgradeSkill(c *gin.Context) {
	skill, err := a.guild.UpgradeSkill(c.Request.Context(), a.userID, c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, skill)
}

func (a *API) handleCraft(c *gin.Context) {
	item, err := a.guild.Craft(c.Request.Context(), a.userID, c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (a *API) handleEquip(c *gin.Context) {
	item, err := a.guild.Equip(c.Request.Context(), a.userID, c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *API) handleCareer(c *gin.Context) {
	if a.reconstructor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store not configured"})
		return
	}
	recent := 10
	if s := c.Query("recent"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recent must be a non-negative integer"})
			return
		}
		recent = n
	}
	career, err := a.reconstructor.BuildCareer(c.Request.Context(), a.userID, recent)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, career)
}

// fail maps domain errors onto HTTP status codes.
func (a *API) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownHunter),
		errors.Is(err, engine.ErrUnknownLocation),
		errors.Is(err, engine.ErrUnknownEquipment):
		return http.StatusBadRequest
	case errors.Is(err, guild.ErrUnknownSkill),
		errors.Is(err, guild.ErrUnknownRecipe),
		errors.Is(err, guild.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, guild.ErrSkillLocked),
		errors.Is(err, guild.ErrSkillMaxed),
		errors.Is(err, guild.ErrInsufficientEctos),
		errors.Is(err, guild.ErrMissingMaterials):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEngineStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
