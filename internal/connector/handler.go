package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	apperrors "enrichsync/pkg/errors"
	"enrichsync/pkg/metrics"
)

type InstallStore interface {
	Get(ctx context.Context, id string) (*install.Install, error)
	Upsert(ctx context.Context, inst *install.Install) error
}

// Notifier is the producer side of the enrichment flow.
type Notifier interface {
	SendUserMessages(ctx context.Context, inst *install.Install, messages []crm.UserUpdateMessage, isBatch bool) error
	SendAccountMessages(ctx context.Context, inst *install.Install, messages []crm.AccountUpdateMessage, isBatch bool) error
}

type StatusReporter interface {
	Determine(ctx context.Context, inst *install.Install) crm.ConnectorStatus
}

type ProspectLists interface {
	Lists(ctx context.Context, inst *install.Install) ([]enrichment.FieldOption, error)
	Import(ctx context.Context, inst *install.Install, listID int) (enrichment.ImportSummary, error)
}

// Flow control answers sent back to the notifier.
const (
	flowControlSize = 100
	flowControlIn   = 5
)

type Handler struct {
	installs  InstallStore
	notifier  Notifier
	status    StatusReporter
	prospects ProspectLists
	logger    logger.Logger
}

func NewHandler(installs InstallStore, notifier Notifier, status StatusReporter, prospects ProspectLists, log logger.Logger) *Handler {
	return &Handler{
		installs:  installs,
		notifier:  notifier,
		status:    status,
		prospects: prospects,
		logger:    log,
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	c.JSON(apperrors.ToHTTPStatus(err), apperrors.ToErrorResponse(err))
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.PUT("/installs/:id", h.UpsertInstall)
	router.GET("/meta/fields/:objectType", h.MetaFields)

	authed := router.Group("", h.InstallAuth())
	{
		authed.POST("/smart-notifier", h.SmartNotifier)
		authed.POST("/batch", h.Batch)
		authed.GET("/status", h.Status)
		authed.GET("/meta/prospect-lists", h.ProspectLists)
		authed.POST("/actions/prospect-lists/:listId/import", h.ImportProspectList)
	}
}

// SmartNotifier godoc
// @Summary      Receive CRM update notifications
// @Description  Filters the messages by synchronized segments and queues lookups for them
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        X-Install-Id      header  string               true  "Install id"
// @Param        X-Install-Secret  header  string               true  "Install secret"
// @Param        notification      body    NotificationRequest  true  "Notification"
// @Success      200  {object}  NotificationResponse
// @Failure      400  {object}  errors.ErrorResponse
// @Failure      401  {object}  errors.ErrorResponse
// @Router       /smart-notifier [post]
func (h *Handler) SmartNotifier(c *gin.Context) {
	h.notify(c, false)
}

// Batch godoc
// @Summary      Receive a manual batch
// @Description  Same as the notifier endpoint but segment filtering is skipped
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        notification  body      NotificationRequest  true  "Batch"
// @Success      200           {object}  NotificationResponse
// @Failure      400           {object}  errors.ErrorResponse
// @Failure      401           {object}  errors.ErrorResponse
// @Router       /batch [post]
func (h *Handler) Batch(c *gin.Context) {
	h.notify(c, true)
}

func (h *Handler) notify(c *gin.Context, isBatch bool) {
	ctx := c.Request.Context()
	inst := currentInstall(c)

	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, apperrors.ErrValidation.WithCause(err))
		return
	}

	var (
		count int
		err   error
	)
	switch req.Channel {
	case ChannelUserUpdate:
		var messages []crm.UserUpdateMessage
		if err := decodeMessages(req.Messages, &messages); err != nil {
			h.HandleError(c, err)
			return
		}
		count = len(messages)
		metrics.NotificationsTotal.WithLabelValues(constants.ObjectTypeUser, strconv.FormatBool(isBatch)).Add(float64(count))
		err = h.notifier.SendUserMessages(ctx, inst, messages, isBatch)

	case ChannelAccountUpdate:
		var messages []crm.AccountUpdateMessage
		if err := decodeMessages(req.Messages, &messages); err != nil {
			h.HandleError(c, err)
			return
		}
		count = len(messages)
		metrics.NotificationsTotal.WithLabelValues(constants.ObjectTypeAccount, strconv.FormatBool(isBatch)).Add(float64(count))
		err = h.notifier.SendAccountMessages(ctx, inst, messages, isBatch)

	default:
		h.HandleError(c, apperrors.ErrValidation.WithDetail("message", "unsupported channel '"+req.Channel+"'"))
		return
	}

	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.DebugwCtx(ctx, "Notification processed",
		"channel", req.Channel,
		"messages", count,
		"batch", isBatch,
	)
	c.JSON(http.StatusOK, NotificationResponse{
		FlowControl: FlowControl{Type: "next", Size: flowControlSize, In: flowControlIn},
	})
}

func decodeMessages(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.ErrValidation.WithCause(err).WithDetail("message", "messages could not be decoded")
	}
	return nil
}

// Status godoc
// @Summary      Connector status
// @Tags         status
// @Produce      json
// @Success      200  {object}  crm.ConnectorStatus
// @Failure      401  {object}  errors.ErrorResponse
// @Router       /status [get]
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Determine(c.Request.Context(), currentInstall(c)))
}

// MetaFields godoc
// @Summary      List mappable provider fields
// @Tags         meta
// @Produce      json
// @Param        objectType  path      string  true  "enrichmentbyurl, domainsearch or prospectlist"
// @Success      200         {object}  enrichment.FieldsSchema
// @Router       /meta/fields/{objectType} [get]
func (h *Handler) MetaFields(c *gin.Context) {
	c.JSON(http.StatusOK, enrichment.ListMetadata(c.Param("objectType")))
}

// ProspectLists godoc
// @Summary      List provider prospect lists
// @Tags         meta
// @Produce      json
// @Success      200  {object}  enrichment.FieldsSchema
// @Failure      401  {object}  errors.ErrorResponse
// @Router       /meta/prospect-lists [get]
//
// ProspectLists answers// ProspectLists answers in the meta fields shape so the settings UI can
// render it as a select.
func (h *Handler) ProspectLists(c *gin.Context) {
	options, err := h.prospects.Lists(c.Request.Context(), currentInstall(c))
	if err != nil {
		msg := err.Error()
		c.JSON(http.StatusOK, enrichment.FieldsSchema{OK: false, Error: &msg, Options: []enrichment.FieldOption{}})
		return
	}
	c.JSON(http.StatusOK, enrichment.FieldsSchema{OK: true, Options: options})
}

// ImportProspectList godoc
// @Summary      Import a prospect list into the CRM
// @Tags         actions
// @Produce      json
// @Param        listId  path      int  true  "Prospect list id"
// @Success      200     {object}  enrichment.ImportSummary
// @Failure      400     {object}  errors.ErrorResponse
// @Failure      401     {object}  errors.ErrorResponse
// @Failure      404     {object}  errors.ErrorResponse
// @Failure      502     {object}  errors.ErrorResponse
// @Router       /actions/prospect-lists/{listId}/import [post]
func (h *Handler) ImportProspectList(c *gin.Context) {
	listID, err := strconv.Atoi(c.Param("listId"))
	if err != nil || listID <= 0 {
		h.HandleError(c, apperrors.ErrValidation.WithDetail("message", "listId must be a positive integer"))
		return
	}

	summary, err := h.prospects.Import(c.Request.Context(), currentInstall(c), listID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UpsertInstall godoc
// @Summary      Create or update an install
// @Tags         installs
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Install id"
// @Param        install  body      InstallRequest  true  "Install"
// @Success      200      {object}  install.Install
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      401      {object}  errors.ErrorResponse
// @Router       /installs/{id} [put]
//
// UpsertInstall creates// UpsertInstall creates an install or replaces its settings. Replacing an
// existing install requires its current secret.
func (h *Handler) UpsertInstall(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req InstallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, apperrors.ErrValidation.WithCause(err))
		return
	}

	existing, err := h.installs.Get(ctx, id)
	switch {
	case err == nil:
		if !secretMatches(existing.Secret, c.GetHeader(constants.HeaderInstallSecret)) {
			h.HandleError(c, apperrors.ErrUnauthorized.WithDetail("message", "install secret mismatch"))
			return
		}
	case !apperrors.IsNotFound(err):
		h.HandleError(c, err)
		return
	}

	inst := &install.Install{
		ID:           id,
		Secret:       req.Secret,
		Organization: req.Organization,
		Settings:     req.Settings,
	}
	if err := h.installs.Upsert(ctx, inst); err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.InfowCtx(ctx, "Install saved",
		"install_id", inst.ID,
		"created", existing == nil,
	)
	c.JSON(http.StatusOK, inst)
}
