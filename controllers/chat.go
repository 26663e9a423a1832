package controllers

import (
	"net/http"
	"strings"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/labstack/echo/v4"
)

type ChatIn struct {
	History []models.ChatTurn `json:"history" validate:"max=100,dive"`
	Message string            `json:"message" validate:"required,max=2000"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ChatController struct {
	App App
}

func (controller *ChatController) ChatRoutes(g *echo.Group) {
	g.GET("", controller.Greeting)
	g.POST("", controller.Chat, GuardMiddleware(controller.App.Guard, services.ActionChat))
}

// Greeting is the opening assistant turn of every conversation.
func (controller *ChatController) Greeting(c echo.Context) error {
	return c.JSON(http.StatusOK, models.ChatTurn{Role: models.ChatRoleAssistant, Text: models.StylistGreeting})
}

// Chat answers with the stylist's reply, or the fallback text when the model
// cannot be reached.
func (controller *ChatController) Chat(c echo.Context) error {
	var req ChatIn
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := c.Validate(req); err != nil {
		return errorJSON(c, http.StatusBadRequest, validationMessage(err))
	}

	reply := controller.App.Stylist.Converse(c.Request().Context(), req.History, controller.App.Items.List(), req.Message)
	return c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}
