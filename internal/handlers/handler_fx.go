package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	portssvc "github.com/oks-citadel/citadelbuy-fx/internal/core/ports/services"
	"github.com/oks-citadel/citadelbuy-fx/internal/dto"
	"github.com/oks-citadel/citadelbuy-fx/internal/middleware"
)

// fxHandler handles HTTP requests related to exchange rate refreshes.
type fxHandler struct {
	fxService portssvc.FxSvcFacade
}

// newFxHandler creates a new fxHandler.
func newFxHandler(fx portssvc.FxSvcFacade) *fxHandler {
	return &fxHandler{
		fxService: fx,
	}
}

// registerFxRoutes registers routes related to exchange rates.
func registerFxRoutes(rg *gin.RouterGroup, fxService portssvc.FxSvcFacade) {
	h := newFxHandler(fxService)

	// Refresh triggers hit upstream providers, so they are rate limited:
	// 10 requests per minute per IP.
	rate, _ := limiter.NewRateFromFormatted("10-M")
	store := memory.NewStore()
	limitMiddleware := middleware.RateLimit(limiter.New(store, rate))

	fx := rg.Group("/fx")
	{
		fx.POST("/refresh", limitMiddleware, h.refreshRates)
		fx.POST("/refresh-all", limitMiddleware, h.refreshAll)
		fx.GET("/rates/:base", h.getLatestRates)
		fx.GET("/rates/:base/:quote", h.getPairRate)
		fx.GET("/currencies", h.listBaseCurrencies)
		fx.GET("/history/:from/:to", h.getRateHistory)
	}
}

// refreshRates godoc
// @Summary Trigger a rate refresh
// @Description Refreshes exchange rates for one base currency. Returns the refresh outcome; lock contention and provider failures are reported in the body, not as HTTP errors.
// @Tags fx
// @Accept  json
// @Produce  json
// @Param   job body dto.RefreshRequest true "Refresh job"
// @Success 200 {object} dto.RefreshResultResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 429 {object} map[string]string "Too many requests"
// @Router /fx/refresh [post]
func (h *fxHandler) refreshRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RefreshRates", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to refresh rates",
		slog.String("base_currency", req.BaseCurrency),
		slog.String("provider", req.Provider),
		slog.Bool("force", req.ForceRefresh),
	)

	result := h.fxService.RefreshRates(c.Request.Context(), req.ToRefreshJob())
	c.JSON(http.StatusOK, dto.ToRefreshResultResponse(result))
}

// refreshAll godoc
// @Summary Refresh all supported base currencies
// @Description Sequentially refreshes every supported base currency and reports one result per currency. Failures are isolated per currency.
// @Tags fx
// @Produce  json
// @Param   force query bool false "Bypass cache freshness checks"
// @Success 200 {array} dto.RefreshResultResponse
// @Router /fx/refresh-all [post]
func (h *fxHandler) refreshAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	force := c.Query("force") == "true"

	logger.Info("Received request to refresh all base currencies", slog.Bool("force", force))

	results := h.fxService.RefreshAll(c.Request.Context(), force)
	c.JSON(http.StatusOK, dto.ToListRefreshResultResponse(results))
}

// getLatestRates godoc
// @Summary Get the latest cached rates
// @Description Retrieves the cached rate table for a base currency. Never triggers a fetch.
// @Tags fx
// @Produce  json
// @Param   base path string true "Base Currency Code (3 letters)" MinLength(3) MaxLength(3)
// @Success 200 {object} dto.RateTableResponse
// @Failure 400 {object} map[string]string "Invalid currency code format"
// @Failure 404 {object} map[string]string "No cached rates"
// @Router /fx/rates/{base} [get]
func (h *fxHandler) getLatestRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	base := c.Param("base")

	entry, err := h.fxService.GetLatestRates(c.Request.Context(), base)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No cached rates for " + base})
		} else {
			logger.Error("Failed to get latest rates", slog.String("base_currency", base), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rates"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToRateTableResponse(entry))
}

// getPairRate godoc
// @Summary Get a single cached pair rate
// @Description Retrieves one cached (base,quote) rate in O(1).
// @Tags fx
// @Produce  json
// @Param   base  path string true "Base Currency Code (3 letters)"
// @Param   quote path string true "Quote Currency Code (3 letters)"
// @Success 200 {object} dto.PairRateResponse
// @Failure 400 {object} map[string]string "Invalid currency code format"
// @Failure 404 {object} map[string]string "No cached rate"
// @Router /fx/rates/{base}/{quote} [get]
func (h *fxHandler) getPairRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	base := c.Param("base")
	quote := c.Param("quote")

	rate, err := h.fxService.GetPairRate(c.Request.Context(), base, quote)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No cached rate for " + base + "/" + quote})
		} else {
			logger.Error("Failed to get pair rate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rate"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.PairRateResponse{
		BaseCurrency:  base,
		QuoteCurrency: quote,
		Rate:          rate,
	})
}

// getRateHistory godoc
// @Summary Get rate history for a currency pair
// @Description Retrieves recent audit rows for a (from,to) pair, newest first. Empty when history persistence is disabled or nothing was recorded.
// @Tags fx
// @Produce  json
// @Param   from  path  string true  "From Currency Code (3 letters)"
// @Param   to    path  string true  "To Currency Code (3 letters)"
// @Param   limit query int    false "Maximum rows to return (default 100)"
// @Success 200 {array} dto.HistoryRecordResponse
// @Failure 400 {object} map[string]string "Invalid currency code format"
// @Router /fx/history/{from}/{to} [get]
func (h *fxHandler) getRateHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from := c.Param("from")
	to := c.Param("to")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	records, err := h.fxService.GetRateHistory(c.Request.Context(), from, to, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to get rate history", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToListHistoryRecordResponse(records))
}

// listBaseCurrencies godoc
// @Summary List supported base currencies
// @Tags fx
// @Produce  json
// @Success 200 {object} map[string][]string
// @Router /fx/currencies [get]
func (h *fxHandler) listBaseCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"baseCurrencies": h.fxService.SupportedBaseCurrencies()})
}
