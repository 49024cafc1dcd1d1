package websocket

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

func register(t *testing.T, hub *Hub, userID uuid.UUID, username string, role domain.Role) *Client {
	t.Helper()
	client := NewClient(hub, nil, userID, username, role, slog.New(slog.NewTextHandler(io.Discard, nil)))
	hub.Register <- client
	require.Eventually(t, func() bool {
		return hub.IsUserConnected(userID)
	}, time.Second, 5*time.Millisecond)
	return client
}

func drain(c *Client) []interface{} {
	var got []interface{}
	for {
		select {
		case payload := <-c.Send:
			got = append(got, payload)
		default:
			return got
		}
	}
}

func TestHub_SendToUser(t *testing.T) {
	hub := testHub(t)
	alice := uuid.New()
	bob := uuid.New()

	aliceClient := register(t, hub, alice, "alice", domain.RoleUser)
	bobClient := register(t, hub, bob, "bob", domain.RoleTechnician)

	hub.SendToUser(alice, "hello")

	assert.Len(t, drain(aliceClient), 1)
	assert.Empty(t, drain(bobClient))
}

func TestHub_SendToUser_MultipleConnections(t *testing.T) {
	hub := testHub(t)
	alice := uuid.New()

	tab1 := NewClient(hub, nil, alice, "alice", domain.RoleUser, slog.New(slog.NewTextHandler(io.Discard, nil)))
	tab2 := NewClient(hub, nil, alice, "alice", domain.RoleUser, slog.New(slog.NewTextHandler(io.Discard, nil)))
	hub.Register <- tab1
	hub.Register <- tab2
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.SendToUser(alice, "hello")

	assert.Len(t, drain(tab1), 1)
	assert.Len(t, drain(tab2), 1)
}

func TestHub_SendToUser_OfflineIsSilent(t *testing.T) {
	hub := testHub(t)

	assert.NotPanics(t, func() {
		hub.SendToUser(uuid.New(), "nobody home")
	})
}

func TestHub_SendToRole(t *testing.T) {
	hub := testHub(t)
	user := register(t, hub, uuid.New(), "alice", domain.RoleUser)
	tech := register(t, hub, uuid.New(), "bob", domain.RoleTechnician)
	admin := register(t, hub, uuid.New(), "root", domain.RoleAdmin)

	hub.SendToRole(domain.RoleTechnician, "new work", nil)

	assert.Empty(t, drain(user))
	assert.Len(t, drain(tech), 1)
	assert.Empty(t, drain(admin))
}

func TestHub_SendToRole_Except(t *testing.T) {
	hub := testHub(t)
	bobID := uuid.New()
	bob := register(t, hub, bobID, "bob", domain.RoleTechnician)
	carol := register(t, hub, uuid.New(), "carol", domain.RoleTechnician)

	hub.SendToRole(domain.RoleTechnician, "new work", []uuid.UUID{bobID})

	assert.Empty(t, drain(bob))
	assert.Len(t, drain(carol), 1)
}

func TestHub_Broadcast(t *testing.T) {
	hub := testHub(t)
	adminID := uuid.New()
	user := register(t, hub, uuid.New(), "alice", domain.RoleUser)
	tech := register(t, hub, uuid.New(), "bob", domain.RoleTechnician)
	admin := register(t, hub, adminID, "root", domain.RoleAdmin)

	hub.Broadcast("ticket gone", []uuid.UUID{adminID})

	assert.Len(t, drain(user), 1)
	assert.Len(t, drain(tech), 1)
	assert.Empty(t, drain(admin))
}

func TestHub_UnregisterRemovesUser(t *testing.T) {
	hub := testHub(t)
	alice := uuid.New()
	client := register(t, hub, alice, "alice", domain.RoleUser)

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		return !hub.IsUserConnected(alice)
	}, time.Second, 5*time.Millisecond)

	// Channel is closed exactly once, a second unregister must not panic.
	assert.NotPanics(t, func() {
		hub.Unregister <- client
		time.Sleep(20 * time.Millisecond)
	})
}

func TestHub_ConnectedUsers(t *testing.T) {
	hub := testHub(t)
	alice := uuid.New()
	register(t, hub, alice, "alice", domain.RoleUser)

	users := hub.ConnectedUsers()
	require.Len(t, users, 1)
	assert.Equal(t, alice, users[0].UserID)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, 1, users[0].Connections)
}
