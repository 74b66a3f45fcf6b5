package notifier

import (
	"context"
	"fmt"

	settingsservice "cyclecount/internal/settings/service"
	"cyclecount/pkg/i18n"
	"cyclecount/pkg/kafka"
	"cyclecount/pkg/logger"
)

// Notification is what gets handed to the floor clients. Sound and
// vibration flags mirror the counter's saved settings; clients honor
// them verbatim.
type Notification struct {
	UserName  string `json:"user_name"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Sound     bool   `json:"sound"`
	Vibration bool   `json:"vibration"`
	Language  string `json:"language"`
}

// Dispatcher delivers a notification to a counter's device.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// LogDispatcher is the default delivery path until a push gateway is
// wired in; it records what would have been sent.
type LogDispatcher struct {
	Log *logger.Logger
}

func (d *LogDispatcher) Dispatch(_ context.Context, n Notification) error {
	d.Log.Info("Notification dispatched",
		"user", n.UserName,
		"title", n.Title,
		"body", n.Body,
		"sound", n.Sound,
		"vibration", n.Vibration,
		"language", n.Language,
	)
	return nil
}

// Handler turns count and assignment events into notifications.
type Handler struct {
	settings   settingsservice.SettingsService
	dispatcher Dispatcher
	log        *logger.Logger
}

func NewHandler(settings settingsservice.SettingsService, dispatcher Dispatcher, log *logger.Logger) *Handler {
	return &Handler{
		settings:   settings,
		dispatcher: dispatcher,
		log:        log,
	}
}

// HandleCountEvent processes count.submitted messages.
func (h *Handler) HandleCountEvent(ctx context.Context, msg kafka.Message) error {
	var event kafka.CountSubmittedEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable count event", err)
	}

	settings, err := h.settings.Get(ctx, event.CountedBy)
	if err != nil {
		// Settings lookup failure should not poison the partition.
		return kafka.NewTransientError("failed to load settings for "+event.CountedBy, err)
	}

	body := fmt.Sprintf("%s: %d/%d",
		i18n.T(settings.Language, "count_saved"),
		event.CountedQty,
		event.ExpectedQty,
	)
	if event.Variance != 0 {
		body = fmt.Sprintf("%s (%+d)", body, event.Variance)
	}

	return h.dispatcher.Dispatch(ctx, Notification{
		UserName:  event.CountedBy,
		Title:     i18n.T(settings.Language, "tab_my_assign"),
		Body:      body,
		Sound:     settings.SoundOn,
		Vibration: settings.VibrationOn,
		Language:  settings.Language,
	})
}

// HandleAssignmentEvent processes assignment.created messages.
func (h *Handler) HandleAssignmentEvent(ctx context.Context, msg kafka.Message) error {
	var event kafka.AssignmentCreatedEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable assignment event", err)
	}

	settings, err := h.settings.Get(ctx, event.AssignedTo)
	if err != nil {
		return kafka.NewTransientError("failed to load settings for "+event.AssignedTo, err)
	}

	deadline := event.LockedUntil.In(i18n.LocalNow(settings.Timezone).Location())

	return h.dispatcher.Dispatch(ctx, Notification{
		UserName:  event.AssignedTo,
		Title:     i18n.T(settings.Language, "tab_assign"),
		Body:      fmt.Sprintf("%s %s (%s)", i18n.T(settings.Language, "new_assignment"), event.Location, deadline.Format("15:04")),
		Sound:     settings.SoundOn,
		Vibration: settings.VibrationOn,
		Language:  settings.Language,
	})
}
