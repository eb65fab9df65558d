package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grubgo/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type CartRequest struct {
	Cart []services.CartLineInput `json:"cart"`
}

// @Summary      Sign up
// @Description  Creates an unverified account and emails an EMAIL_VERIFICATION code.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      services.SignupInput  true  "new account"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/users/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var req services.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please fill in all sections.")
		return
	}
	res, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, "user.signup", err)
		return
	}
	ok(c, http.StatusOK, Envelope{Status: string(services.StatusPending), Message: res.Message, Data: res.Issue})
}

// @Summary      Log in
// @Description  Checks credentials by email, username or identifier and emails a code (2FA, or email verification for unverified accounts).
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      services.LoginInput  true  "credentials"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please fill in all sections.")
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, "user.login", err)
		return
	}
	ok(c, http.StatusOK, Envelope{Status: string(services.StatusPending), Message: res.Message, Data: res.Issue})
}

// @Summary      List users
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, "user.list", err)
		return
	}
	ok(c, http.StatusOK, Envelope{Data: users})
}

// @Summary      Delete user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "user id"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "user.delete", err, crudStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{Message: "User deleted!"})
}

// @Summary      Replace cart
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "user id"
// @Param        body  body      CartRequest  true  "cart lines"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/users/cart/{id} [put]
func (h *UserHandler) UpdateCart(c *gin.Context) {
	var req CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid cart payload.")
		return
	}
	user, err := h.service.UpdateCart(c.Request.Context(), c.Param("id"), req.Cart)
	if err != nil {
		writeError(c, "user.cart", err, crudStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{Message: "Cart updated!", Data: user})
}
