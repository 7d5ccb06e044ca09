package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sample-app/internal/domain"
	"sample-app/internal/pipeline"
	"sample-app/internal/service"
	"sample-app/internal/storage"
)

const userKey = "user"

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth     service.AuthService
	payments service.PaymentService
	emails   service.EmailService
	exporter *service.Exporter
	storage  storage.Service
	bucket   string
	log      logrus.FieldLogger
}

// Deps lists the services behind the API. Emails, Exporter and Storage are
// optional.
type Deps struct {
	Auth     service.AuthService
	Payments service.PaymentService
	Emails   service.EmailService
	Exporter *service.Exporter
	Storage  storage.Service
	Bucket   string
	Logger   logrus.FieldLogger
}

func NewHandler(deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		auth:     deps.Auth,
		payments: deps.Payments,
		emails:   deps.Emails,
		exporter: deps.Exporter,
		storage:  deps.Storage,
		bucket:   deps.Bucket,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.POST("/auth/logout", h.logout)
		api.GET("/auth/me", h.requireUser(), h.me)

		payments := api.Group("/payments", h.requireUser())
		payments.GET("", h.listTransactions)
		payments.POST("", h.charge)
		payments.GET("/:id", h.getTransaction)
		payments.POST("/:id/refund", h.refund)

		api.POST("/pipeline/run", h.runPipeline)
		api.GET("/storage/objects", h.listObjects)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		user, err := h.auth.UserFromToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c *gin.Context) *domain.User {
	v, _ := c.Get(userKey)
	user, _ := v.(*domain.User)
	return user
}

// writeError maps service error kinds onto status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:  strings.TrimSpace(req.Username),
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if h.emails != nil {
		h.emails.SendWelcome(c.Request.Context(), user.Email, user.Username, user.FullName())
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "token_type": "Bearer"})
}

func (h *Handler) logout(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, userToResponse(currentUser(c)))
}

type chargeRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Card     string          `json:"card" binding:"required"`
	Currency string          `json:"currency"`
}

func (h *Handler) charge(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.payments.Charge(c.Request.Context(), req.Amount, req.Card, req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}

	if user := currentUser(c); h.emails != nil && user != nil && tx.Status == domain.PaymentStatusSuccess {
		h.emails.SendOrderConfirmation(c.Request.Context(), user.Email, user.FullName(), shortID(tx.ID), tx.Amount)
	}
	c.JSON(http.StatusCreated, transactionToResponse(tx))
}

func (h *Handler) getTransaction(c *gin.Context) {
	tx, err := h.payments.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(tx))
}

func (h *Handler) listTransactions(c *gin.Context) {
	txs, err := h.payments.ListTransactions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]TransactionResponse, len(txs))
	for i := range txs {
		resp[i] = transactionToResponse(&txs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) refund(c *gin.Context) {
	tx, err := h.payments.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, transactionToResponse(tx))
}

type pipelineRequest struct {
	Records    []pipeline.Record   `json:"records" binding:"required"`
	Steps      []pipeline.StepSpec `json:"steps"`
	StatsField string              `json:"stats_field"`
	GroupBy    string              `json:"group_by"`
	Export     bool                `json:"export"`
	Name       string              `json:"name"`
}

type PipelineResponse struct {
	Records  []pipeline.Record `json:"records"`
	Steps    []string          `json:"steps"`
	Stats    *pipeline.Stats   `json:"stats,omitempty"`
	Groups   map[string]int    `json:"groups,omitempty"`
	Location string            `json:"location,omitempty"`
}

func (h *Handler) runPipeline(c *gin.Context) {
	var req pipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	processor, err := pipeline.Build(h.log, req.Steps)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := processor.Run(req.Records)
	if records == nil {
		records = []pipeline.Record{}
	}
	resp := PipelineResponse{Records: records, Steps: processor.Steps()}
	if req.StatsField != "" {
		if stats, ok := pipeline.ComputeStats(records, req.StatsField); ok {
			resp.Stats = &stats
		}
	}
	if req.GroupBy != "" {
		resp.Groups = pipeline.GroupBy(records, req.GroupBy).Counts()
	}

	if req.Export {
		if !h.exporter.Enabled() {
			c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrStorageNotConfigured.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		location, err := h.exporter.Export(ctx, req.Name, records)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp.Location = location
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listObjects(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	prefix := c.Query("prefix")
	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, prefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
