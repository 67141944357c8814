package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"haventory/internal/common"
	"haventory/internal/models"
	"haventory/internal/services"

	"github.com/labstack/echo/v4"
)

const defaultHeartbeat = 15 * time.Second

// SubscriptionHandlers streams inventory events as server-sent events
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
	heartbeat           time.Duration
	log                 *slog.Logger
}

// NewSubscriptionHandlers creates a new subscription handlers instance
func NewSubscriptionHandlers(subscriptionService services.SubscriptionService, heartbeat time.Duration, log *slog.Logger) *SubscriptionHandlers {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &SubscriptionHandlers{
		subscriptionService: subscriptionService,
		heartbeat:           heartbeat,
		log:                 log,
	}
}

func parseSubscriptionFilter(c echo.Context) (models.SubscriptionFilter, error) {
	filter := models.SubscriptionFilter{
		Topic:          strings.TrimSpace(c.QueryParam("topic")),
		IncludeSubtree: true,
	}
	if raw := strings.TrimSpace(c.QueryParam("location_id")); raw != "" {
		id, err := models.ParseUUIDv4(raw, "location_id")
		if err != nil {
			return filter, err
		}
		filter.LocationID = &id
	}
	include, err := common.QueryBool(c, "include_subtree")
	if err != nil {
		return filter, err
	}
	if include != nil {
		filter.IncludeSubtree = *include
	}
	return filter, nil
}

// Subscribe handles GET /subscribe?topic=&location_id=&include_subtree=
func (h *SubscriptionHandlers) Subscribe(c echo.Context) error {
	filter, err := parseSubscriptionFilter(c)
	if err != nil {
		return common.SendError(c, h.log, "subscribe", err)
	}
	sub, err := h.subscriptionService.Subscribe(filter)
	if err != nil {
		return common.SendError(c, h.log, "subscribe", err)
	}
	defer h.subscriptionService.Unsubscribe(sub.ID)

	w := c.Response()
	// the stream outlives the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, ": subscribed %s\n\n", sub.ID); err != nil {
		return nil
	}
	w.Flush()

	h.log.Debug("event stream opened", "subscription_id", sub.ID, "topic", filter.Topic)
	ctx := c.Request().Context()
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("event stream closed by client", "subscription_id", sub.ID)
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev, ok := <-sub.Events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("failed to encode event", "topic", ev.Topic, "action", ev.Action, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
