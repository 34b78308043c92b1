package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/api/middleware"
	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

// EnrollmentHandler exposes the selection, payment and enrollment flow.
type EnrollmentHandler struct {
	service ports.EnrollmentService
}

func NewEnrollmentHandler(service ports.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Select
//
// @Summary      Select a class
// @Tags         enrollment
// @Accept       json
// @Security     BearerAuth
// @Param        email  path  string            true  "Caller email"
// @Param        body   body  selectionRequest  true  "Class"
// @Success      201
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /identities/{email}/selection [post]
func (h *EnrollmentHandler) Select(c echo.Context) error {
	email, err := requireSelf(c)
	if err != nil {
		return err
	}
	var req selectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Select(c.Request().Context(), email, req.ClassID); err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// Deselect removes a class from the selection. Removing a class that is not
// selected succeeds.
//
// @Summary      Deselect a class
// @Tags         enrollment
// @Security     BearerAuth
// @Param        email     path   string  true   "Caller email"
// @Param        class_id  query  string  false  "Class id (or JSON body)"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /identities/{email}/selection [delete]
func (h *EnrollmentHandler) Deselect(c echo.Context) error {
	email, err := requireSelf(c)
	if err != nil {
		return err
	}
	var req selectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Deselect(c.Request().Context(), email, req.ClassID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSelected
//
// @Summary      Selected classes
// @Tags         enrollment
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller email"
// @Success      200    {array}   domain.Class
// @Failure      403    {object}  map[string]string
// @Router       /identities/{email}/selection [get]
func (h *EnrollmentHandler) ListSelected(c echo.Context) error {
	email, err := requireSelf(c)
	if err != nil {
		return err
	}
	classes, err := h.service.ListSelected(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, classes)
}

// ListEnrolled
//
// @Summary      Enrolled classes
// @Tags         enrollment
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller email"
// @Success      200    {array}   domain.Class
// @Failure      403    {object}  map[string]string
// @Router       /identities/{email}/enrollment [get]
func (h *EnrollmentHandler) ListEnrolled(c echo.Context) error {
	email, err := requireSelf(c)
	if err != nil {
		return err
	}
	classes, err := h.service.ListEnrolled(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, classes)
}

// PaymentHistory
//
// @Summary      Payment history, newest first
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller email"
// @Success      200    {array}   domain.Payment
// @Failure      403    {object}  map[string]string
// @Router       /identities/{email}/payments [get]
func (h *EnrollmentHandler) PaymentHistory(c echo.Context) error {
	email, err := requireSelf(c)
	if err != nil {
		return err
	}
	payments, err := h.service.PaymentHistory(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// CreatePaymentIntent
//
// @Summary      Open a payment intent
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      paymentIntentRequest  true  "Amount"
// @Success      200   {object}  paymentIntentResponse
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /payment-intents [post]
func (h *EnrollmentHandler) CreatePaymentIntent(c echo.Context) error {
	var req paymentIntentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	secret, err := h.service.CreatePaymentIntent(c.Request().Context(), req.Price)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paymentIntentResponse{ClientSecret: secret})
}

// ConfirmPayment records a payment for the caller and enrolls them.
//
// @Summary      Confirm a payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      confirmPaymentRequest  true  "Payment"
// @Success      201   {object}  domain.Payment
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string  "reconciliation_required"
// @Failure      502   {object}  map[string]string
// @Router       /payments [post]
func (h *EnrollmentHandler) ConfirmPayment(c echo.Context) error {
	email := middleware.Email(c)
	if email == "" {
		return fmt.Errorf("%w: missing authentication", domain.ErrUnauthorized)
	}
	var req confirmPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	payment, err := h.service.ConfirmPayment(c.Request().Context(), ports.ConfirmPaymentInput{
		Email:         email,
		ClassID:       req.ClassID,
		Price:         req.Price,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}
