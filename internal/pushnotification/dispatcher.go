package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ichen27/openclaw-dashboard/internal/eventbus"
	"github.com/ichen27/openclaw-dashboard/internal/task"
)

// Dispatcher turns assignment events from the bus into push notifications.
type Dispatcher struct {
	eventBus *eventbus.Bus
	taskRepo task.Repository
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, taskRepo task.Repository, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		taskRepo: taskRepo,
		sender:   sender,
	}
}

// Start consumes bus events until ctx is cancelled. Run it in its own
// goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.TypeTaskAssigned {
				d.handleTaskAssigned(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleTaskAssigned(ctx context.Context, event *eventbus.Event) {
	t, err := d.taskRepo.Get(ctx, event.ResourceID)
	if err != nil {
		slog.Error("push dispatcher: failed to get task", "id", event.ResourceID, "error", err)
		return
	}

	agent := event.Metadata["agent"]
	d.sender.SendToAll(ctx, &NotificationPayload{
		Title: "Task assigned",
		Body:  fmt.Sprintf("%s assigned to %s", t.Title, agent),
		URL:   fmt.Sprintf("/tasks/%s", t.ID),
		Tag:   event.ID,
	})
}
