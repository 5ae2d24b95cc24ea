package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ourcity/internal/services"
)

type AnalyticsHandler struct {
	analytics services.Analytics
}

func NewAnalyticsHandler(analytics services.Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func period(c *gin.Context) (services.Period, bool) {
	p, err := services.ParsePeriod(c.Query("period"))
	if err != nil {
		RenderError(c, err)
		return "", false
	}
	return p, true
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	out, err := h.analytics.Summary(c.Request.Context(), viewer(c), p)
	respond(c, http.StatusOK, out, err)
}

func (h *AnalyticsHandler) TimeSeries(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	out, err := h.analytics.TimeSeries(c.Request.Context(), viewer(c), p)
	respond(c, http.StatusOK, out, err)
}

func (h *AnalyticsHandler) TagBreakdown(c *gin.Context) {
	p, ok := period(c)
	if !ok {
		return
	}
	out, err := h.analytics.TagBreakdown(c.Request.Context(), viewer(c), p)
	respond(c, http.StatusOK, out, err)
}
