package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	OutboundFlight booking.LegInput          `json:"outbound_flight" binding:"required"`
	ReturnFlight   *booking.LegInput         `json:"return_flight"`
	Passengers     []booking.PassengerInput  `json:"passengers" binding:"required,min=1"`
	PaymentMethod  string                    `json:"payment_method"`
	TransactionID  string                    `json:"transaction_id"`
	TotalAmount    int64                     `json:"total_amount_cents" binding:"required,gt=0"`
}

type bookingLegResponse struct {
	ID       int64 `json:"id"`
	FlightID int64 `json:"flight_id"`
}

type createBookingResponse struct {
	Message          string               `json:"message"`
	BookingReference string               `json:"booking_reference"`
	Bookings         []bookingLegResponse `json:"bookings"`
	Payment          paymentResponse      `json:"payment"`
}

type paymentResponse struct {
	ID               int64  `json:"id"`
	Status           string `json:"status"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	TransactionID    string `json:"transaction_id"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "CREDIT_CARD"
	}

	result, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:           currentUserID(c),
		Outbound:         req.OutboundFlight,
		Return:           req.ReturnFlight,
		Passengers:       req.Passengers,
		PaymentMethod:    method,
		TransactionID:    req.TransactionID,
		TotalAmountCents: req.TotalAmount,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, domain.ErrInsufficientSeats) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		// Diagnostic detail stays in the logs; the caller gets a
		// single generic failure and no partial reference.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction failed"})
		return
	}

	legs := make([]bookingLegResponse, 0, len(result.Bookings))
	for _, b := range result.Bookings {
		legs = append(legs, bookingLegResponse{ID: b.ID, FlightID: b.FlightID})
	}

	c.JSON(http.StatusCreated, createBookingResponse{
		Message:          "Booking Successful",
		BookingReference: result.BookingReference,
		Bookings:         legs,
		Payment: paymentResponse{
			ID:               result.Payment.ID,
			Status:           string(result.Payment.Status),
			TotalAmountCents: result.Payment.TotalAmountCents,
			TransactionID:    result.Payment.TransactionID,
		},
	})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	err = h.service.CancelBooking(c.Request.Context(), id, currentUserID(c))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
	case errors.Is(err, domain.ErrAlreadyCancelled):
		c.JSON(http.StatusBadRequest, gin.H{"error": "already cancelled"})
	case errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrNotOwner):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel booking"})
	}
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	detail, err := h.service.GetBooking(c.Request.Context(), id, currentUserID(c))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, detail)
	case errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrNotOwner):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking"})
	}
}

func (h *BookingHandler) list(c *gin.Context) {
	details, err := h.service.ListBookings(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": details})
}
