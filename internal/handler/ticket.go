package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/middleware"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

type TicketHandler struct {
	ticketService *service.TicketService
}

func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req dto.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(),
		middleware.GetUserID(c), req.Subject, req.Category, req.Message, req.Priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, toTicketResponse(ticket))
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket ID"})
		return
	}

	ticket, messages, err := h.ticketService.Get(c.Request.Context(),
		id, middleware.GetUserID(c), middleware.GetUserRole(c))
	if err != nil {
		h.ticketError(c, err)
		return
	}

	resp := dto.TicketDetailResponse{
		Ticket:   toTicketResponse(ticket),
		Messages: make([]dto.TicketMessageResponse, 0, len(messages)),
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, toTicketMessageResponse(&messages[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TicketHandler) ListMine(c *gin.Context) {
	tickets, err := h.ticketService.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": toTicketResponses(tickets)})
}

func (h *TicketHandler) List(c *gin.Context) {
	status := model.TicketStatus(c.Query("status"))
	tickets, err := h.ticketService.List(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": toTicketResponses(tickets)})
}

func (h *TicketHandler) Reply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket ID"})
		return
	}

	var req dto.TicketReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.ticketService.Reply(c.Request.Context(),
		id, middleware.GetUserID(c), middleware.GetUserRole(c), req.Message, req.IsInternal)
	if err != nil {
		h.ticketError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTicketMessageResponse(msg))
}

func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket ID"})
		return
	}

	var req dto.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ticketService.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		h.ticketError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TicketHandler) ticketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
	case errors.Is(err, service.ErrTicketAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, service.ErrTicketClosed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ticket is closed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func toTicketResponses(tickets []model.SupportTicket) []dto.TicketResponse {
	resp := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, toTicketResponse(&tickets[i]))
	}
	return resp
}

func toTicketResponse(ticket *model.SupportTicket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:        ticket.ID,
		UserID:    ticket.UserID,
		Subject:   ticket.Subject,
		Status:    ticket.Status,
		Priority:  ticket.Priority,
		Category:  ticket.Category,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}

func toTicketMessageResponse(msg *model.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		SenderRole: msg.SenderRole,
		Message:    msg.Message,
		IsInternal: msg.IsInternal,
		CreatedAt:  msg.CreatedAt,
	}
}
