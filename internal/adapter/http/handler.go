package httpadapter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"rialto/internal/app/activity"
	"rialto/internal/app/decision"
	"rialto/internal/app/ports"
	"rialto/internal/app/stratagem"
	"rialto/internal/app/tick"
	"rialto/internal/domain/sim"
)

type Handler struct {
	Orchestrator *decision.Orchestrator
	Ticker       *tick.Runner
	Activities   activity.Store
	Stratagems   *stratagem.Scheduler
	KPI          kpiSnapshotProvider
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	engine := s.Group("/api/engine")
	engine.POST("/decide", h.decide)
	engine.POST("/tick", h.tick)

	s.GET("/api/citizen/:id/activity", h.openActivity)
	s.POST("/api/activity/advance", h.advance)
	s.POST("/api/stratagem/tick", h.stratagemTick)
	s.GET("/ops/kpi", h.kpi)
}

type decideRequest struct {
	CitizenID string `json:"citizen_id"`
}

func (h Handler) decide(c context.Context, ctx *app.RequestContext) {
	var body decideRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.CitizenID == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_citizen_id", "citizen_id is required")
		return
	}

	d, err := h.Orchestrator.Decide(c, body.CitizenID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, d)
}

func (h Handler) tick(c context.Context, ctx *app.RequestContext) {
	report, err := h.Ticker.Run(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, report)
}

func (h Handler) openActivity(c context.Context, ctx *app.RequestContext) {
	citizenID := string(ctx.Param("id"))
	if citizenID == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_citizen_id", "citizen id is required")
		return
	}

	open, err := h.Activities.FindOpenForCitizen(c, citizenID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if open == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "no_open_activity", "citizen has no open activity")
		return
	}
	ctx.JSON(consts.StatusOK, open)
}

type advanceRequest struct {
	ActivityID string `json:"activity_id"`
	Status     string `json:"status"`
}

func (h Handler) advance(c context.Context, ctx *app.RequestContext) {
	var body advanceRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.ActivityID == "" || body.Status == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_fields", "activity_id and status are required")
		return
	}

	if err := h.Activities.Advance(c, body.ActivityID, sim.ActivityStatus(body.Status)); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"ok": true})
}

func (h Handler) stratagemTick(c context.Context, ctx *app.RequestContext) {
	spawned, err := h.Stratagems.TickAll(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"spawned":    len(spawned),
		"activities": spawned,
	})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, activity.ErrCitizenBusy):
		writeErrorBody(ctx, consts.StatusConflict, "citizen_busy", err.Error())
	case errors.Is(err, activity.ErrInvalidTransition):
		writeErrorBody(ctx, consts.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ports.ErrStoreUnavailable):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "store_unavailable", "store unavailable")
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
