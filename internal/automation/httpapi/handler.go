// Package httpapi is the thin external façade: a small, auth-gated
// transport layer over the core services, with no business logic of its
// own.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/odense-rpa/automation-control-plane/internal/automation/domain"
	"github.com/odense-rpa/automation-control-plane/internal/automation/metrics"
	"github.com/odense-rpa/automation-control-plane/internal/automation/registry"
	"github.com/odense-rpa/automation-control-plane/internal/automation/repo"
	"github.com/odense-rpa/automation-control-plane/internal/automation/sessions"
	"github.com/odense-rpa/automation-control-plane/internal/automation/uow"
	"github.com/odense-rpa/automation-control-plane/internal/automation/workqueue"
	"github.com/odense-rpa/automation-control-plane/pkg/logger"
)

// handler holds the dependencies every endpoint needs: a unit-of-work
// factory to scope each request to a single transaction, and a logger.
type handler struct {
	uow uow.Factory
	log *logger.Logger
}

// NewHandler builds the gin engine exposing the worker-facing endpoints,
// plus /healthz and /metrics. tokens configures bearer authentication; an
// empty slice puts the façade in bootstrap/dev mode.
func NewHandler(factory uow.Factory, tokens []string, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("http")
	}
	gin.SetMode(gin.ReleaseMode)
	h := &handler{uow: factory, log: log}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := engine.Group("/")
	api.Use(requireBearer(tokens))
	api.POST("/resources", h.enrollResource)
	api.PUT("/resources/:id/ping", h.pingResource)
	api.GET("/sessions/by_resource_id/:id", h.sessionByResourceID)
	api.PUT("/sessions/:id/status", h.updateSessionStatus)
	api.GET("/workqueues/:id/next_item", h.claimNextItem)
	api.POST("/audit-logs", h.createAuditLog)

	return metrics.InstrumentHandler(engine)
}

type enrollRequest struct {
	Fqdn         string `json:"fqdn" binding:"required"`
	Name         string `json:"name"`
	Capabilities string `json:"capabilities"`
}

func (h *handler) enrollResource(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resource domain.Resource
	err := h.uow.Run(c.Request.Context(), func(ctx context.Context, repos repo.Repositories) error {
		reg := registry.New(repos.Resources, repos.Sessions, h.log)
		res, err := reg.Enroll(ctx, req.Fqdn, req.Name, req.Capabilities)
		resource = res
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

func (h *handler) pingResource(c *gin.Context) {
	id := c.Param("id")
	var resource domain.Resource
	err := h.uow.Run(c.Request.Context(), func(ctx context.Context, repos repo.Repositories) error {
		reg := registry.New(repos.Resources, repos.Sessions, h.log)
		res, err := reg.KeepAlive(ctx, id)
		resource = res
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

func (h *handler) sessionByResourceID(c *gin.Context) {
	id := c.Param("id")
	var (
		session domain.Session
		found   bool
	)
	err := h.uow.Run(c.Request.Context(), func(ctx context.Context, repos repo.Repositories) error {
		sess, ok, err := repos.Sessions.GetByResourceID(ctx, id)
		session, found = sess, ok
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, session)
}

type updateStatusRequest struct {
	Status domain.SessionStatus `json:"status" binding:"required"`
}

func (h *handler) updateSessionStatus(c *gin.Context) {
	id := c.Param("id")
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var session domain.Session
	err := h.uow.Run(c.Request.Context(), func(ctx context.Context, repos repo.Repositories) error {
		svc := sessions.New(repos.Sessions, repos.Resources, h.log)
		sess, err := svc.UpdateStatus(ctx, id, req.Status)
		session = sess
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *handler) claimNextItem(c *gin.Context) {
	id := c.Param("id")
	var (
		item  domain.WorkItem
		found bool
	)
	err := h.uow.Run(c.Request.Context(), func(ctx context.Context, repos repo.Repositories) error {
		svc := workqueue.New(repos.Workqueues, repos.WorkItems, h.log)
		claimed, ok, err := svc.ClaimNext(ctx, id)
		item, found = claimed, ok
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrContended) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service busy"})
			return
		}
		writeError(c, err)
		return
	}
	if !found {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, item)
}

type auditLogRequest struct {
	SessionID      *string        `json:"session_id"`
	WorkItemID     *string        `json:"work_item_id"`
	Message        string         `json:"message"`
	Level          string         `json:"level"`
	LoggerName     string         `json:"logger_name"`
	Module         string         `json:"module"`
	FunctionName   string         `json:"function_name"`
	StructuredData map[string]any `json:"structured_data"`
}

func (h *handler) createAuditLog(c *gin.Context) {
	var req auditLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var entry domain.AuditLog
	err := h.uow.Run(c.Request.Context(), func(ctx context.Context, repos repo.Repositories) error {
		created, err := repos.AuditLogs.Create(ctx, domain.AuditLog{
			SessionID:      req.SessionID,
			WorkItemID:     req.WorkItemID,
			Message:        req.Message,
			Level:          req.Level,
			LoggerName:     req.LoggerName,
			Module:         req.Module,
			FunctionName:   req.FunctionName,
			StructuredData: req.StructuredData,
		})
		entry = created
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
