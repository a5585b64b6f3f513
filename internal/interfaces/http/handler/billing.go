package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appbilling "github.com/hostpanel/backend/internal/application/billing"
	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/infrastructure/logger"
	"github.com/hostpanel/backend/internal/interfaces/http/dto"
)

// SweepRunner runs billing sweeps
type SweepRunner interface {
	RunSweep(ctx context.Context, kind billing.ResourceKind) (*billing.SweepResult, error)
	RunAllSweeps(ctx context.Context) (*billing.SweepResult, error)
}

// LifecycleHooks handles resource creation and termination billing
type LifecycleHooks interface {
	OnResourceCreated(ctx context.Context, res *billing.BillableResource) (*appbilling.ChargeResult, error)
	OnResourceTerminated(ctx context.Context, kind billing.ResourceKind, resourceID uuid.UUID) error
}

// LedgerReader reads ledger history for a resource
type LedgerReader interface {
	FindByResource(ctx context.Context, resourceID uuid.UUID) ([]*billing.LedgerEntry, error)
}

var (
	_ SweepRunner    = (*appbilling.SweepService)(nil)
	_ LifecycleHooks = (*appbilling.LifecycleService)(nil)
)

// ScopeGuards holds the per-route authorization middleware. Nil entries mean
// no additional check beyond authentication.
type ScopeGuards struct {
	// Admin guards manual sweep triggers
	Admin gin.HandlerFunc
	// Hooks guards the provisioning lifecycle hooks
	Hooks gin.HandlerFunc
	// Read guards ledger queries
	Read gin.HandlerFunc
}

// BillingHandler handles billing API endpoints: sweep triggers, lifecycle
// hooks from the provisioning pipeline, and ledger queries.
type BillingHandler struct {
	BaseHandler
	sweeps    SweepRunner
	lifecycle LifecycleHooks
	ledger    LedgerReader
	guards    ScopeGuards
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(sweeps SweepRunner, lifecycle LifecycleHooks, ledger LedgerReader) *BillingHandler {
	return &BillingHandler{
		sweeps:    sweeps,
		lifecycle: lifecycle,
		ledger:    ledger,
	}
}

// WithScopeGuards installs per-route authorization middleware and returns the
// handler for chaining.
func (h *BillingHandler) WithScopeGuards(guards ScopeGuards) *BillingHandler {
	h.guards = guards
	return h
}

// RegisterRoutes registers billing routes on the given group
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/billing")
	group.POST("/sweeps", guarded(h.guards.Admin, h.TriggerAllSweeps)...)
	group.POST("/sweeps/:kind", guarded(h.guards.Admin, h.TriggerSweep)...)
	group.POST("/hooks/provisioned", guarded(h.guards.Hooks, h.ResourceProvisioned)...)
	group.POST("/hooks/deprovisioned", guarded(h.guards.Hooks, h.ResourceDeprovisioned)...)
	group.GET("/resources/:id/ledger", guarded(h.guards.Read, h.GetResourceLedger)...)
}

func guarded(guard gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{guard, handler}
}

// TriggerAllSweeps runs the sweep across every resource kind
func (h *BillingHandler) TriggerAllSweeps(c *gin.Context) {
	result, err := h.sweeps.RunAllSweeps(c.Request.Context())
	if err != nil {
		h.handleSweepError(c, err)
		return
	}
	h.Success(c, dto.FromSweepResult(result))
}

// TriggerSweep runs the sweep for one resource kind
func (h *BillingHandler) TriggerSweep(c *gin.Context) {
	kind, ok := parseResourceKind(c.Param("kind"))
	if !ok {
		h.BadRequest(c, "Unknown resource kind")
		return
	}

	result, err := h.sweeps.RunSweep(c.Request.Context(), kind)
	if err != nil {
		h.handleSweepError(c, err)
		return
	}
	h.Success(c, dto.FromSweepResult(result))
}

// ResourceProvisioned charges the first prepaid hour for a newly live resource
func (h *BillingHandler) ResourceProvisioned(c *gin.Context) {
	var req dto.ResourceProvisionedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind, ok := parseResourceKind(req.Kind)
	if !ok {
		h.BadRequest(c, "Unknown resource kind")
		return
	}

	res := &billing.BillableResource{
		ID:              req.ResourceID,
		Kind:            kind,
		AccountID:       req.AccountID,
		Name:            req.Name,
		PlanID:          req.PlanID,
		BackupAddOnID:   req.BackupAddOnID,
		BackupFrequency: catalog.BackupFrequency(req.BackupFrequency),
		CreatedAt:       req.CreatedAt,
	}
	if req.LegacyHourlyRate != nil {
		rate, err := decimal.NewFromString(*req.LegacyHourlyRate)
		if err != nil {
			h.BadRequest(c, "Invalid legacy hourly rate")
			return
		}
		res.LegacyHourlyRate = &rate
	}

	result, err := h.lifecycle.OnResourceCreated(c.Request.Context(), res)
	if err != nil {
		logger.GetGinLogger(c).Warn("Creation hook failed", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromChargeResult(result))
}

// ResourceDeprovisioned stamps the final checkpoint for a terminated resource
func (h *BillingHandler) ResourceDeprovisioned(c *gin.Context) {
	var req dto.ResourceDeprovisionedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind, ok := parseResourceKind(req.Kind)
	if !ok {
		h.BadRequest(c, "Unknown resource kind")
		return
	}

	if err := h.lifecycle.OnResourceTerminated(c.Request.Context(), kind, req.ResourceID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.NotFound(c, "Resource not found")
			return
		}
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// GetResourceLedger returns the full charge history of a resource
func (h *BillingHandler) GetResourceLedger(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid resource ID")
		return
	}

	entries, err := h.ledger.FindByResource(c.Request.Context(), resourceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.FromLedgerEntries(entries))
}

func (h *BillingHandler) handleSweepError(c *gin.Context, err error) {
	if errors.Is(err, billing.ErrSchemaUnavailable) {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSchemaUnavailable,
			"Billing schema is not migrated; sweep aborted")
		return
	}
	h.HandleDomainError(c, err)
}

// parseResourceKind accepts both the canonical enum form and the
// lowercase path form (virtual_machine, managed_app, addon_subscription).
func parseResourceKind(raw string) (billing.ResourceKind, bool) {
	kind := billing.ResourceKind(strings.ToUpper(raw))
	if kind.IsValid() {
		return kind, true
	}
	return "", false
}
