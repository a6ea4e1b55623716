package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"paybridge/internal/engine"
	"paybridge/internal/events"
	"paybridge/internal/logger"
	"paybridge/internal/provider"
	"paybridge/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Router exposes the aggregation and routing API.
type Router struct {
	Engine    *engine.Engine
	Store     *store.Store
	Publisher *events.Publisher
}

func NewRouter(eng *engine.Engine, st *store.Store, pub *events.Publisher) *Router {
	return &Router{Engine: eng, Store: st, Publisher: pub}
}

// Register mounts the API under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/providers/status", r.handleStatus(""))
	for prefix, domain := range map[string]engine.Domain{
		"banking": provider.CategoryBanking,
		"crypto":  provider.CategoryCryptoExchange,
	} {
		sub := group.Group("/" + prefix)
		sub.GET("/status", r.handleStatus(domain))
		sub.GET("/accounts", r.handleAccounts(domain))
		sub.GET("/balances", r.handleBalances(domain))
		sub.GET("/transactions", r.handleTransactions(domain))
	}
	group.GET("/accounts", r.handleAccounts(""))
	group.GET("/balances", r.handleBalances(""))
	group.GET("/transactions", r.handleTransactions(""))
	group.GET("/prices", r.handlePrices)
	group.GET("/convert", r.handleConvert)
	group.POST("/routes", r.handleSelectRoute)
	group.GET("/routes", r.handleListRoutes)
	group.GET("/routes/:id", r.handleRouteByID)
}

func (r *Router) handleStatus(domain engine.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"providers": r.Engine.Status(domain)})
	}
}

func (r *Router) handleAccounts(domain engine.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Engine.Accounts(c.Request.Context(), domain))
	}
}

func (r *Router) handleBalances(domain engine.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Engine.Balances(c.Request.Context(), domain))
	}
}

func (r *Router) handleTransactions(domain engine.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		c.JSON(http.StatusOK, r.Engine.Transactions(c.Request.Context(), domain, limit))
	}
}

func (r *Router) handlePrices(c *gin.Context) {
	var symbols []string
	if raw := strings.TrimSpace(c.Query("symbols")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	c.JSON(http.StatusOK, r.Engine.Prices(c.Request.Context(), symbols...))
}

func (r *Router) handleConvert(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	amount, err := decimal.NewFromString(c.DefaultQuery("amount", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is not a number"})
		return
	}
	conv, err := r.Engine.Convert(c.Request.Context(), symbol, amount)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// routeRequest is the payment-route request body.
type routeRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required"`
}

func (r *Router) handleSelectRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decision, err := r.Engine.SelectRoute(c.Request.Context(), req.Amount, req.Currency)
	if err != nil {
		var noRoute *engine.NoRouteError
		if errors.As(err, &noRoute) {
			c.JSON(http.StatusConflict, gin.H{
				"error":    engine.ErrNoRouteAvailable.Error(),
				"currency": noRoute.Currency,
				"rejected": noRoute.Rejected,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if r.Store != nil {
		if err := r.Store.SaveDecision(c.Request.Context(), decision); err != nil {
			logger.Errorf("[http] persisting route decision %s: %v", decision.ID, err)
		}
	}
	if r.Publisher != nil {
		r.Publisher.PublishRouteDecision(c.Request.Context(), decision)
	}
	c.JSON(http.StatusOK, decision)
}

func (r *Router) handleListRoutes(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "route audit store not enabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	decisions, err := r.Store.ListDecisions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions})
}

func (r *Router) handleRouteByID(c *gin.Context) {
	if r.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "route audit store not enabled"})
		return
	}
	decision, err := r.Store.GetDecision(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "decision not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}
