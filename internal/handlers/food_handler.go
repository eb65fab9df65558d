package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grubgo/internal/services"
)

type FoodHandler struct {
	service services.FoodService
}

func NewFoodHandler(service services.FoodService) *FoodHandler {
	return &FoodHandler{service: service}
}

// @Summary      List foods
// @Tags         Foods
// @Produce      json
// @Success      200  {object}  Envelope
// @Router       /api/foods [get]
func (h *FoodHandler) ListFoods(c *gin.Context) {
	foods, err := h.service.ListFoods(c.Request.Context())
	if err != nil {
		writeError(c, "food.list", err)
		return
	}
	ok(c, http.StatusOK, Envelope{Data: foods})
}

// @Summary      Get food
// @Tags         Foods
// @Produce      json
// @Param        id   path      string  true  "food id"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/foods/{id} [get]
func (h *FoodHandler) GetFood(c *gin.Context) {
	f, err := h.service.GetFood(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "food.get", err, crudStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{Data: f})
}

// @Summary      Create food
// @Tags         Foods
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      services.FoodInput  true  "food"
// @Success      201   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/foods [post]
func (h *FoodHandler) CreateFood(c *gin.Context) {
	var req services.FoodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide all fields.")
		return
	}
	f, err := h.service.CreateFood(c.Request.Context(), req)
	if err != nil {
		writeError(c, "food.create", err)
		return
	}
	ok(c, http.StatusCreated, Envelope{Data: f})
}

// @Summary      Update food
// @Tags         Foods
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "food id"
// @Param        body  body      services.FoodInput  true  "food"
// @Success      200   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/foods/{id} [put]
func (h *FoodHandler) UpdateFood(c *gin.Context) {
	var req services.FoodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Please provide all fields.")
		return
	}
	f, err := h.service.UpdateFood(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, "food.update", err, crudStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{Data: f})
}

// @Summary      Delete food
// @Tags         Foods
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "food id"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/foods/{id} [delete]
func (h *FoodHandler) DeleteFood(c *gin.Context) {
	if err := h.service.DeleteFood(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "food.delete", err, crudStatuses...)
		return
	}
	ok(c, http.StatusOK, Envelope{Message: "Food deleted!"})
}
