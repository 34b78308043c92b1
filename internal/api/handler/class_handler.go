package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/api/middleware"
	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

// ClassHandler serves class browsing, instructor authoring and admin
// moderation.
type ClassHandler struct {
	service ports.ClassService
}

func NewClassHandler(service ports.ClassService) *ClassHandler {
	return &ClassHandler{service: service}
}

// List returns the public catalogue. Only approved classes are listed; any
// other status filter is rejected.
//
// @Summary      List approved classes
// @Tags         classes
// @Produce      json
// @Param        status  query     string  false  "Only 'approved' is accepted"
// @Success      200     {array}   domain.Class
// @Failure      400     {object}  map[string]string
// @Router       /classes [get]
func (h *ClassHandler) List(c echo.Context) error {
	if status := c.QueryParam("status"); status != "" && status != string(domain.ClassApproved) {
		return fmt.Errorf("%w: only approved classes are public", domain.ErrInvalidInput)
	}
	classes, err := h.service.ListApproved(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, classes)
}

// Popular
//
// @Summary      Most enrolled approved classes
// @Tags         classes
// @Produce      json
// @Success      200  {array}  domain.Class
// @Router       /classes/popular [get]
func (h *ClassHandler) Popular(c echo.Context) error {
	classes, err := h.service.ListPopular(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, classes)
}

// Get
//
// @Summary      Get a class
// @Tags         classes
// @Produce      json
// @Param        id   path      string  true  "Class id"
// @Success      200  {object}  domain.Class
// @Failure      404  {object}  map[string]string
// @Router       /classes/{id} [get]
func (h *ClassHandler) Get(c echo.Context) error {
	class, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, class)
}

// Create submits a class for review. The instructor is the caller.
//
// @Summary      Create a class
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      classRequest  true  "Class"
// @Success      201   {object}  domain.Class
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /classes [post]
func (h *ClassHandler) Create(c echo.Context) error {
	var req classRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	class, err := h.service.Create(c.Request().Context(), ports.CreateClassInput{
		InstructorEmail: middleware.Email(c),
		Name:            req.Name,
		Price:           req.Price,
		Seats:           req.Seats,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, class)
}

// Update
//
// @Summary      Update an owned class
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Class id"
// @Param        body  body      classRequest  true  "Class"
// @Success      200   {object}  domain.Class
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /classes/{id} [put]
func (h *ClassHandler) Update(c echo.Context) error {
	var req classRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	class, err := h.service.Update(c.Request().Context(), middleware.Email(c), c.Param("id"), ports.ClassUpdate{
		Name:     req.Name,
		Price:    req.Price,
		Seats:    req.Seats,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, class)
}

// ListByInstructor
//
// @Summary      Classes of the calling instructor
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Instructor email"
// @Success      200    {array}   domain.Class
// @Failure      403    {object}  map[string]string
// @Router       /instructors/{email}/classes [get]
func (h *ClassHandler) ListByInstructor(c echo.Context) error {
	email, err := requireSelf(c)
	if err != nil {
		return err
	}
	classes, err := h.service.ListByInstructor(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, classes)
}

// ListAll
//
// @Summary      All classes for moderation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending, approved or denied"
// @Success      200     {array}   domain.Class
// @Failure      400     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /admin/classes [get]
func (h *ClassHandler) ListAll(c echo.Context) error {
	classes, err := h.service.ListAll(c.Request().Context(), domain.ClassStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, classes)
}

// SetStatus
//
// @Summary      Approve or deny a class
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string              true  "Class id"
// @Param        body  body  classStatusRequest  true  "Status"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /classes/{id}/status [patch]
func (h *ClassHandler) SetStatus(c echo.Context) error {
	var req classStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetStatus(c.Request().Context(), c.Param("id"), domain.ClassStatus(req.Status)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetFeedback
//
// @Summary      Attach admin feedback to a class
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string           true  "Class id"
// @Param        body  body  feedbackRequest  true  "Feedback"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /classes/{id}/feedback [put]
func (h *ClassHandler) SetFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetFeedback(c.Request().Context(), c.Param("id"), req.Feedback); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
