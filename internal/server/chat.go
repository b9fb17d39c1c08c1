package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"

	"github.com/mohammad-safakhou/askweb/internal/chat"
	"github.com/mohammad-safakhou/askweb/internal/store"
	"github.com/mohammad-safakhou/askweb/internal/telemetry"
	"github.com/mohammad-safakhou/askweb/models"
)

const maxTitleRunes = 80

type ChatHandler struct {
	Store  *store.Store
	Driver *chat.Driver
	Logger *log.Logger
}

func (h *ChatHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.POST("", h.chat)
}

// chat runs one conversation turn, streaming the driver's events as SSE.
// For a new conversation the assigned id is announced on a sideband frame
// before any answer content so clients can address the conversation even
// when the turn itself fails.
func (h *ChatHandler) chat(c echo.Context) error {
	req := c.Request()
	ctx := req.Context()
	userID, _ := c.Get("user_id").(string)

	tracer := telemetry.Tracer("server")
	ctx, span := tracer.Start(ctx, "ChatHandler.chat")
	defer span.End()
	c.SetRequest(req.WithContext(ctx))

	var in ChatRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(in.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages required")
	}
	if last := in.Messages[len(in.Messages)-1]; last.Role != models.RoleUser || strings.TrimSpace(last.Text()) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "last message must be a non-empty user message")
	}

	convID := in.ConversationID
	isNew := in.IsNewConversation || convID == ""
	if isNew {
		convID = uuid.NewString()
	}
	span.SetAttributes(telemetry.String("conversation_id", convID))

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		span.SetStatus(codes.Error, "streaming unsupported")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	send := func(event string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("event: " + event + "\n")); err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if isNew {
		if err := send("conversation", map[string]string{"conversation_id": convID}); err != nil {
			return nil
		}
	}

	for ev := range h.Driver.Run(ctx, in.Messages) {
		switch ev.Type {
		case chat.EventText:
			if err := send("text", map[string]string{"delta": ev.Text}); err != nil {
				return nil
			}
		case chat.EventToolCall:
			if err := send("tool_call", ev.ToolCall); err != nil {
				return nil
			}
		case chat.EventToolResult:
			if err := send("tool_result", ev.ToolResult); err != nil {
				return nil
			}
		case chat.EventDone:
			title := deriveTitle(firstUserText(ev.Messages))
			if _, err := h.Store.SaveConversation(ctx, userID, convID, title, ev.Messages); err != nil {
				span.SetStatus(codes.Error, err.Error())
				h.Logger.Printf("persist conversation %s failed: %v", convID, err)
				_ = send("error", HTTPError{Error: "failed to persist conversation"})
				return nil
			}
			_ = send("done", map[string]string{"conversation_id": convID, "text": ev.Text})
			return nil
		case chat.EventError:
			span.SetStatus(codes.Error, ev.Err.Error())
			_ = send("error", HTTPError{Error: ev.Err.Error()})
			return nil
		}
	}
	return nil
}

func firstUserText(msgs []models.Message) string {
	for _, m := range msgs {
		if m.Role == models.RoleUser {
			return m.Text()
		}
	}
	return ""
}

// deriveTitle takes the first line of the opening message, bounded.
func deriveTitle(message string) string {
	title := strings.TrimSpace(message)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes-1]) + "…"
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}
