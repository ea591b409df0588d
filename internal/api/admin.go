package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/nchu-course-helper/internal/catalog"
	"github.com/garyellow/nchu-course-helper/internal/ctxutil"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
)

// triggerRefresh starts a catalog refresh. With ?wait=true it responds with
// the refresh report; otherwise it responds 202 and refreshes in the
// background.
func (h *Handler) triggerRefresh(c *gin.Context) {
	if h.catalog.Refreshing() {
		h.respondError(c, domerrors.ErrRefreshInProgress)
		return
	}

	wait, _ := strconv.ParseBool(c.Query("wait"))
	if wait {
		ctx, cancel := context.WithTimeout(ctxutil.WithJob(c.Request.Context(), "admin_refresh"), h.refreshTimeout)
		defer cancel()

		report, err := h.catalog.Refresh(ctx, catalog.TriggerAdmin)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	ctx := ctxutil.WithJob(ctxutil.PreserveTracing(c.Request.Context()), "admin_refresh")
	h.bgWG.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, h.refreshTimeout)
		defer cancel()
		stop := context.AfterFunc(h.bgCtx, cancel)
		defer stop()

		if _, err := h.catalog.Refresh(ctx, catalog.TriggerAdmin); err != nil {
			h.logger.WithError(err).WarnContext(ctx, "admin refresh failed")
		}
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) catalogStats(c *gin.Context) {
	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
