package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/askweb/internal/store"
)

type ConversationsHandler struct {
	Store *store.Store
}

func (h *ConversationsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.GET("", h.list)
	g.GET("/:conversation_id", h.get)
	g.DELETE("/:conversation_id", h.delete)
}

func (h *ConversationsHandler) list(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	out, err := h.Store.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ConversationsHandler) get(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	conv, err := h.Store.GetConversation(c.Request().Context(), userID, c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *ConversationsHandler) delete(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	err := h.Store.DeleteConversation(c.Request().Context(), userID, c.Param("conversation_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
