package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
	"github.com/abengolea/heartlink-sub000/internal/shared/utils"
)

type sweepExpiredUseCase interface {
	Execute(ctx context.Context, now time.Time) (*usecases.SweepReport, error)
}

// CronHandler exposes the expiry sweep to external schedulers and admins.
type CronHandler struct {
	sweepUseCase sweepExpiredUseCase
	now          func() time.Time
	logger       logger.Interface
}

func NewCronHandler(sweepUC sweepExpiredUseCase, logger logger.Interface) *CronHandler {
	return &CronHandler{
		sweepUseCase: sweepUC,
		now:          biztime.NowUTC,
		logger:       logger,
	}
}

// Sweep runs one expiry sweep
// @Summary Run the expiry sweep
// @Description Backfills missing grace periods and blocks subscriptions whose grace window has passed. Safe to call redundantly.
// @Tags Cron
// @Produce json
// @Security BearerAuth
// @Success 200 {object} usecases.SweepReport
// @Failure 401 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /cron/sweep [get]
// @Router /cron/sweep [post]
func (h *CronHandler) Sweep(c *gin.Context) {
	report, err := h.sweepUseCase.Execute(c.Request.Context(), h.now())
	if err != nil {
		h.logger.Errorw("expiry sweep failed", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "expiry sweep failed")
		return
	}

	c.JSON(http.StatusOK, report)
}
