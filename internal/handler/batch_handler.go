package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"faxrelay/internal/domain"
)

type BatchService interface {
	Create(ctx context.Context, batch *domain.Batch) (*domain.Batch, error)
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	Retrigger(ctx context.Context, id string) (*domain.Batch, error)
	Cancel(ctx context.Context, id string) error
}

type BatchHandler struct {
	service BatchService
}

func NewBatchHandler(service BatchService) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	return &BatchHandler{service: service}, nil
}

func RegisterBatchRoutes(router fiber.Router, service BatchService) error {
	h, err := NewBatchHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/batches", h.CreateBatch)
	v1.Get("/batches/:id", h.GetBatch)
	v1.Post("/batches/:id/retrigger", h.RetriggerBatch)
	v1.Post("/batches/:id/cancel", h.CancelBatch)

	return nil
}

type createBatchRequest struct {
	Name            string  `json:"name"`
	CreatedBy       string  `json:"createdBy"`
	TotalCount      int     `json:"totalCount"`
	Channel         string  `json:"channel"`
	Timing          string  `json:"timing"`
	IntervalSeconds int     `json:"intervalSeconds"`
	RecipientPhone  string  `json:"recipientPhone"`
	RecipientName   string  `json:"recipientName"`
	AccountName     string  `json:"accountName"`
	AttachmentPath  *string `json:"attachmentPath,omitempty"`
}

type batchResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name,omitempty"`
	CreatedBy       string     `json:"createdBy,omitempty"`
	TotalCount      int        `json:"totalCount"`
	Channel         string     `json:"channel"`
	Timing          string     `json:"timing"`
	IntervalSeconds int        `json:"intervalSeconds"`
	RecipientPhone  string     `json:"recipientPhone"`
	RecipientName   string     `json:"recipientName,omitempty"`
	AccountName     string     `json:"accountName"`
	AttachmentPath  *string    `json:"attachmentPath,omitempty"`
	Status          string     `json:"status"`
	SubmittedCount  int        `json:"submittedCount"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt,omitempty"`
}

func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req createBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	batch, err := requestToDomainBatch(req)
	if err != nil {
		return toHTTPError(err)
	}

	created, err := h.service.Create(c.Context(), &batch)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toBatchResponse(created))
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	batch, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) RetriggerBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	batch, err := h.service.Retrigger(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) CancelBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Cancel(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"batchId": id,
		"status":  domain.BatchStatusCancelled.String(),
	})
}

func requestToDomainBatch(req createBatchRequest) (domain.Batch, error) {
	channel, err := domain.ParseChannelFromString(req.Channel)
	if err != nil {
		return domain.Batch{}, err
	}

	timing := domain.TimingImmediate
	if strings.TrimSpace(req.Timing) != "" {
		timing, err = domain.ParseTimingFromString(req.Timing)
		if err != nil {
			return domain.Batch{}, err
		}
	}

	return domain.Batch{
		Name:            strings.TrimSpace(req.Name),
		CreatedBy:       strings.TrimSpace(req.CreatedBy),
		TotalCount:      req.TotalCount,
		Channel:         channel,
		Timing:          timing,
		IntervalSeconds: req.IntervalSeconds,
		RecipientPhone:  strings.TrimSpace(req.RecipientPhone),
		RecipientName:   strings.TrimSpace(req.RecipientName),
		AccountName:     strings.TrimSpace(req.AccountName),
		AttachmentPath:  req.AttachmentPath,
	}, nil
}

func toBatchResponse(b *domain.Batch) batchResponse {
	if b == nil {
		return batchResponse{}
	}

	return batchResponse{
		ID:              b.ID,
		Name:            b.Name,
		CreatedBy:       b.CreatedBy,
		TotalCount:      b.TotalCount,
		Channel:         b.Channel.String(),
		Timing:          b.Timing.String(),
		IntervalSeconds: b.IntervalSeconds,
		RecipientPhone:  b.RecipientPhone,
		RecipientName:   b.RecipientName,
		AccountName:     b.AccountName,
		AttachmentPath:  b.AttachmentPath,
		Status:          b.Status.String(),
		SubmittedCount:  b.SubmittedCount,
		CompletedAt:     b.CompletedAt,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
