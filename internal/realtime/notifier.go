package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event is the envelope pushed to clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Notifier fans an event out to the user's open sockets and to the Redis
// channel notifications:<userID> for other backend instances.
type Notifier struct {
	Hub *Hub
	RDB *redis.Client
}

func NewNotifier(hub *Hub, rdb *redis.Client) *Notifier {
	return &Notifier{Hub: hub, RDB: rdb}
}

func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, event string, payload any) {
	ev := Event{Type: event, Data: payload}
	if n.Hub != nil {
		n.Hub.SendToUser(userID, ev)
	}
	if n.RDB == nil {
		return
	}

	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Notifier] Error marshaling %s: %v", event, err)
		return
	}
	if err := n.RDB.Publish(ctx, "notifications:"+userID.String(), b).Err(); err != nil {
		log.Printf("[Notifier] Publish %s to %s failed: %v", event, userID, err)
	}
}
