package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/api/middleware"
	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

type IdentityHandler struct {
	service ports.IdentityService
}

func NewIdentityHandler(service ports.IdentityService) *IdentityHandler {
	return &IdentityHandler{service: service}
}

type registerRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Name     string `json:"name"      validate:"max=200"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

type credentialRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type credentialResponse struct {
	Token string `json:"token"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

type adminCheckResponse struct {
	Admin bool `json:"admin"`
}

type instructorCheckResponse struct {
	Instructor bool `json:"instructor"`
}

// Register stores a new identity. Registering an existing email succeeds
// without creating a second record.
//
// @Summary      Register an identity
// @Tags         identities
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Profile"
// @Success      201   {object}  registerResponse
// @Success      200   {object}  registerResponse  "Already registered"
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /identities [post]
func (h *IdentityHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, created, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		return err
	}

	if !created {
		return c.JSON(http.StatusOK, registerResponse{Message: "user already exists", User: user})
	}
	return c.JSON(http.StatusCreated, registerResponse{Message: "user registered", User: user})
}

// IssueCredential signs a short-lived bearer token for an identity.
//
// @Summary      Issue a credential
// @Tags         identities
// @Accept       json
// @Produce      json
// @Param        body  body      credentialRequest  true  "Identity"
// @Success      200   {object}  credentialResponse
// @Failure      400   {object}  map[string]string
// @Router       /credentials [post]
func (h *IdentityHandler) IssueCredential(c echo.Context) error {
	var req credentialRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.service.IssueCredential(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, credentialResponse{Token: token})
}

// ListUsers
//
// @Summary      List all identities
// @Tags         identities
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /identities [get]
func (h *IdentityHandler) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// SetRole
//
// @Summary      Change an identity's role
// @Tags         identities
// @Accept       json
// @Security     BearerAuth
// @Param        email  path  string          true  "Email"
// @Param        body   body  setRoleRequest  true  "New role"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /identities/{email}/role [patch]
func (h *IdentityHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.SetRole(c.Request().Context(), pathEmail(c), req.Role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// IsAdmin reports whether the caller is an admin. Asking about another
// identity always answers false.
//
// @Summary      Admin role check
// @Tags         identities
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  adminCheckResponse
// @Failure      401    {object}  map[string]string
// @Router       /identities/{email}/role/admin [get]
func (h *IdentityHandler) IsAdmin(c echo.Context) error {
	ok, err := h.hasOwnRole(c, domain.RoleAdmin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminCheckResponse{Admin: ok})
}

// IsInstructor
//
// @Summary      Instructor role check
// @Tags         identities
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  instructorCheckResponse
// @Failure      401    {object}  map[string]string
// @Router       /identities/{email}/role/instructor [get]
func (h *IdentityHandler) IsInstructor(c echo.Context) error {
	ok, err := h.hasOwnRole(c, domain.RoleInstructor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, instructorCheckResponse{Instructor: ok})
}

func (h *IdentityHandler) hasOwnRole(c echo.Context, role string) (bool, error) {
	email := middleware.Email(c)
	if email == "" || pathEmail(c) != email {
		return false, nil
	}
	return h.service.HasRole(c.Request().Context(), email, role)
}

// ListInstructors
//
// @Summary      List instructors
// @Tags         identities
// @Produce      json
// @Success      200  {array}  domain.User
// @Router       /instructors [get]
func (h *IdentityHandler) ListInstructors(c echo.Context) error {
	users, err := h.service.ListInstructors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}
