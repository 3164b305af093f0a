package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func waitConnected(t *testing.T, hub *Hub, userID uuid.UUID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d sockets for %s, got %d", want, userID, hub.Connected(userID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotifierReachesEveryUserSocket(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice, bob := uuid.New(), uuid.New()
	a1, a2, b1 := NewClient(alice), NewClient(alice), NewClient(bob)
	hub.RegisterClient(a1)
	hub.RegisterClient(a2)
	hub.RegisterClient(b1)
	waitConnected(t, hub, alice, 2)
	waitConnected(t, hub, bob, 1)

	NewNotifier(hub, nil).Notify(context.Background(), alice, "job_updated", map[string]string{"status": "Accepted"})

	for _, c := range []*Client{a1, a2} {
		select {
		case raw := <-c.Send:
			var ev struct {
				Type string            `json:"type"`
				Data map[string]string `json:"data"`
			}
			if err := json.Unmarshal(raw, &ev); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			if ev.Type != "job_updated" || ev.Data["status"] != "Accepted" {
				t.Errorf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("socket did not receive the event")
		}
	}

	select {
	case raw := <-b1.Send:
		t.Errorf("bob should receive nothing, got %s", raw)
	default:
	}
}

func TestUnregisterClosesQueue(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	user := uuid.New()
	c := NewClient(user)
	hub.RegisterClient(c)
	waitConnected(t, hub, user, 1)

	hub.UnregisterClient(c)
	waitConnected(t, hub, user, 0)

	if _, ok := <-c.Send; ok {
		t.Error("send queue should be closed")
	}
}

func TestNotifierPublishesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	userID := uuid.New()
	sub := rdb.Subscribe(ctx, "notifications:"+userID.String())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	NewNotifier(nil, rdb).Notify(ctx, userID, "new_message", map[string]string{"title": "Hi"})

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("no message published: %v", err)
	}
	var ev struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if ev.Type != "new_message" || ev.Data["title"] != "Hi" {
		t.Errorf("unexpected event %+v", ev)
	}
}
