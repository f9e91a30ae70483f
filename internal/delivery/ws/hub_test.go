package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmuslimabdulj/meetup-signal/internal/bus"
	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig(clock *testClock) Config {
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Now = clock.Now
	// sweeps are driven by the tests
	cfg.CleanupInterval = time.Hour
	cfg.MaintenanceInterval = time.Hour
	return cfg
}

func startHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	hub, err := NewHub(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

// newMockClient creates a client without a websocket connection
func newMockClient(hub *Hub, id string) *Client {
	return &Client{
		ID:   id,
		hub:  hub,
		conn: nil,
		send: make(chan []byte, 256),
	}
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()
	c := newMockClient(hub, id)
	require.NoError(t, hub.Register(c))
	return c
}

func emit(t *testing.T, hub *Hub, c *Client, typ domain.MessageType, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.True(t, hub.Dispatch(c, domain.Incoming{Type: typ, Payload: raw}))
}

func nextFrame(t *testing.T, c *Client) domain.Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send queue of %s closed", c.ID)
		var m domain.Message
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("%s received nothing", c.ID)
	}
	return domain.Message{}
}

func expectFrame(t *testing.T, c *Client, typ domain.MessageType) domain.Message {
	t.Helper()
	m := nextFrame(t, c)
	require.Equal(t, typ, m.Type, "unexpected frame for %s: %s", c.ID, string(m.Payload))
	return m
}

// flush waits until everything c queued before now has been handled
func flush(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	emit(t, hub, c, domain.MessageTypePing, nil)
	expectFrame(t, c, domain.MessageTypePong)
}

func assertQuiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("%s got unexpected frame %s", c.ID, string(data))
	default:
	}
}

// awaitFrame skips frames until one of type typ arrives
func awaitFrame(t *testing.T, c *Client, typ domain.MessageType) domain.Message {
	t.Helper()
	for i := 0; i < 16; i++ {
		if m := nextFrame(t, c); m.Type == typ {
			return m
		}
	}
	t.Fatalf("%s never received %s", c.ID, typ)
	return domain.Message{}
}

func decode[T any](t *testing.T, m domain.Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(m.Payload, &out))
	return out
}

func join(t *testing.T, hub *Hub, c *Client, roomID, name string, flags domain.MediaFlags) domain.ExistingUsersPayload {
	t.Helper()
	emit(t, hub, c, domain.MessageTypeJoinRoom, domain.JoinRoomPayload{RoomID: roomID, Name: name, MediaFlags: flags})
	return decode[domain.ExistingUsersPayload](t, expectFrame(t, c, domain.MessageTypeExistingUsers))
}

func TestHub_JoinAnnouncesAndSnapshots(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")

	first := join(t, hub, x, "abc", "Alice", domain.MediaFlags{CameraOn: true, AudioOn: true})
	assert.Empty(t, first.Users)

	second := join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	require.Len(t, second.Users, 1)
	assert.Equal(t, "x", second.Users[0].ID)
	assert.Equal(t, "Alice", second.Users[0].Name)
	assert.Equal(t, domain.MediaFlags{CameraOn: true, AudioOn: true}, second.RoomUserStatus["x"])
	assert.NotContains(t, second.RoomUserStatus, "y")

	joined := expectFrame(t, x, domain.MessageTypeUserJoined)
	assert.Equal(t, "y", joined.FromID)
	announced := decode[domain.UserJoinedPayload](t, joined)
	assert.Equal(t, "y", announced.UserID)
	assert.Equal(t, "Bob", announced.Name)

	flush(t, hub, y)
	assertQuiet(t, y)
}

func TestHub_ChatBroadcastAndHistory(t *testing.T) {
	clock := newTestClock()
	hub := startHub(t, testConfig(clock))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")
	z := connect(t, hub, "z")

	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
	join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	expectFrame(t, x, domain.MessageTypeUserJoined)

	emit(t, hub, x, domain.MessageTypeChat, domain.ChatPayload{RoomID: "abc", Message: "hi", Name: "Alice"})

	for _, c := range []*Client{x, y} {
		got := decode[domain.ChatMessage](t, expectFrame(t, c, domain.MessageTypeChat))
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, "hi", got.Message)
		assert.WithinDuration(t, clock.Now(), got.Timestamp, 0)
	}

	join(t, hub, z, "abc", "Carol", domain.MediaFlags{})
	history := decode[domain.ChatHistoryPayload](t, expectFrame(t, z, domain.MessageTypeChatHistory))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hi", history.Messages[0].Message)
	assert.Equal(t, uint64(1), history.Messages[0].Sequence)
}

func TestHub_ChatNameMustMatch(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})

	emit(t, hub, x, domain.MessageTypeChat, domain.ChatPayload{Message: "hi", Name: "Mallory"})

	errMsg := decode[domain.ErrorPayload](t, expectFrame(t, x, domain.MessageTypeError))
	assert.Equal(t, domain.CodeInvalidInput, errMsg.Code)

	stats, err := hub.RoomStats(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.MessageCount)
}

func TestHub_OfferReachesOnlyTarget(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")
	z := connect(t, hub, "z")

	join(t, hub, x, "abc", "Alice", domain.MediaFlags{CameraOn: true})
	join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	join(t, hub, z, "abc", "Carol", domain.MediaFlags{})
	expectFrame(t, x, domain.MessageTypeUserJoined)
	expectFrame(t, x, domain.MessageTypeUserJoined)
	expectFrame(t, y, domain.MessageTypeUserJoined)

	emit(t, hub, x, domain.MessageTypeOffer, map[string]any{
		"to":   "y",
		"sdp":  map[string]string{"type": "offer", "sdp": "v=0"},
		"name": "Spoofed",
	})

	offer := expectFrame(t, y, domain.MessageTypeOffer)
	assert.Equal(t, "x", offer.FromID)
	body := decode[map[string]any](t, offer)
	assert.Equal(t, "x", body["from"])
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, true, body["cameraOn"])
	assert.Equal(t, map[string]any{"type": "offer", "sdp": "v=0"}, body["sdp"])

	flush(t, hub, z)
	assertQuiet(t, z)
	flush(t, hub, x)
	assertQuiet(t, x)
}

func TestHub_SignalToOtherRoomDroppedSilently(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	w := connect(t, hub, "w")

	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
	join(t, hub, w, "other", "Walt", domain.MediaFlags{})

	emit(t, hub, x, domain.MessageTypeICECandidate, map[string]any{"to": "w", "candidate": "a=1"})
	emit(t, hub, x, domain.MessageTypeAnswer, map[string]any{"to": "nobody", "sdp": "v=0"})

	flush(t, hub, x)
	assertQuiet(t, x)
	flush(t, hub, w)
	assertQuiet(t, w)
}

func TestHub_DisconnectAndIdleEviction(t *testing.T) {
	clock := newTestClock()
	hub := startHub(t, testConfig(clock))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")

	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
	join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	expectFrame(t, x, domain.MessageTypeUserJoined)

	hub.Unregister(x)
	hub.Unregister(x)

	left := decode[domain.UserLeftPayload](t, expectFrame(t, y, domain.MessageTypeUserLeft))
	assert.Equal(t, "x", left.ConnectionID)
	flush(t, hub, y)
	assertQuiet(t, y)

	_, open := <-x.send
	assert.False(t, open, "send queue is closed on disconnect")

	emit(t, hub, y, domain.MessageTypeLeaveRoom, nil)
	emit(t, hub, y, domain.MessageTypeLeaveRoom, nil)
	flush(t, hub, y)
	assertQuiet(t, y)
	assert.True(t, hub.cleanup.Pending())

	clock.Advance(domain.IdleRoomTTL - time.Minute)
	require.NoError(t, hub.call(context.Background(), hub.sweepIdle))
	_, err := hub.RoomStats(context.Background(), "abc")
	require.NoError(t, err, "not idle long enough yet")

	clock.Advance(2 * time.Minute)
	require.NoError(t, hub.call(context.Background(), hub.sweepIdle))
	_, err = hub.RoomStats(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestHub_LateMessagesAfterLeaveAreIgnored(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
	emit(t, hub, x, domain.MessageTypeLeaveRoom, nil)

	emit(t, hub, x, domain.MessageTypeChat, domain.ChatPayload{Message: "hi", Name: "Alice"})
	emit(t, hub, x, domain.MessageTypeMediaStatus, map[string]bool{"cameraOn": true})
	emit(t, hub, x, domain.MessageTypeOffer, map[string]string{"to": "y"})

	flush(t, hub, x)
	assertQuiet(t, x)
}

func TestHub_JoinRateLimited(t *testing.T) {
	clock := newTestClock()
	hub := startHub(t, testConfig(clock))
	x := connect(t, hub, "x")

	for i := 0; i < 5; i++ {
		join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
	}

	emit(t, hub, x, domain.MessageTypeJoinRoom, domain.JoinRoomPayload{RoomID: "abc", Name: "Alice"})
	errMsg := decode[domain.ErrorPayload](t, expectFrame(t, x, domain.MessageTypeError))
	assert.Equal(t, domain.CodeRateLimited, errMsg.Code)

	clock.Advance(time.Minute)
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
}

func TestHub_RoomFull(t *testing.T) {
	cfg := testConfig(newTestClock())
	cfg.Registry.Limits.MaxParticipants = 2
	hub := startHub(t, cfg)

	a := connect(t, hub, "a")
	b := connect(t, hub, "b")
	c := connect(t, hub, "c")
	join(t, hub, a, "abc", "A", domain.MediaFlags{})
	join(t, hub, b, "abc", "B", domain.MediaFlags{})
	expectFrame(t, a, domain.MessageTypeUserJoined)

	emit(t, hub, c, domain.MessageTypeJoinRoom, domain.JoinRoomPayload{RoomID: "abc", Name: "C"})
	errMsg := decode[domain.ErrorPayload](t, expectFrame(t, c, domain.MessageTypeError))
	assert.Equal(t, domain.CodeRoomFull, errMsg.Code)

	flush(t, hub, a)
	assertQuiet(t, a)
	stats, err := hub.RoomStats(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Participants)

	// c stays unjoined
	emit(t, hub, c, domain.MessageTypeChat, domain.ChatPayload{Message: "hi", Name: "C"})
	flush(t, hub, c)
	assertQuiet(t, c)
}

func TestHub_InvalidAndMalformedJoin(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")

	emit(t, hub, x, domain.MessageTypeJoinRoom, domain.JoinRoomPayload{RoomID: "abc", Name: ""})
	errMsg := decode[domain.ErrorPayload](t, expectFrame(t, x, domain.MessageTypeError))
	assert.Equal(t, domain.CodeInvalidInput, errMsg.Code)

	require.True(t, hub.Dispatch(x, domain.Incoming{Type: domain.MessageTypeJoinRoom, Payload: json.RawMessage(`"nope"`)}))
	require.True(t, hub.Dispatch(x, domain.Incoming{Type: "no-such-event", Payload: json.RawMessage(`{}`)}))
	flush(t, hub, x)
	assertQuiet(t, x)
}

func TestHub_RejoinLeavesPreviousRoom(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")

	join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
	expectFrame(t, y, domain.MessageTypeUserJoined)

	join(t, hub, x, "xyz", "Alice", domain.MediaFlags{})
	left := decode[domain.UserLeftPayload](t, expectFrame(t, y, domain.MessageTypeUserLeft))
	assert.Equal(t, "x", left.ConnectionID)
}

func TestHub_MediaStatusAndScreenShare(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{CameraOn: true})
	join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	expectFrame(t, x, domain.MessageTypeUserJoined)

	emit(t, hub, x, domain.MessageTypeMediaStatus, map[string]bool{"screenShareOn": true})

	status := decode[domain.MediaStatusChangedPayload](t, expectFrame(t, y, domain.MessageTypeMediaStatus))
	assert.Equal(t, "x", status.UserID)
	assert.Equal(t, domain.MediaFlags{CameraOn: true, ScreenShareOn: true}, status.MediaFlags)

	started := decode[domain.ScreenSharePayload](t, expectFrame(t, y, domain.MessageTypeScreenShareStarted))
	assert.Equal(t, "Alice", started.Name)

	// no transition, no screen-share event
	emit(t, hub, x, domain.MessageTypeMediaStatus, map[string]bool{"audioOn": true})
	expectFrame(t, y, domain.MessageTypeMediaStatus)

	emit(t, hub, x, domain.MessageTypeMediaStatus, map[string]bool{"screenShareOn": false})
	expectFrame(t, y, domain.MessageTypeMediaStatus)
	expectFrame(t, y, domain.MessageTypeScreenShareStopped)

	flush(t, hub, x)
	assertQuiet(t, x)

	// a late joiner sees the merged flags
	z := connect(t, hub, "z")
	snapshot := join(t, hub, z, "abc", "Carol", domain.MediaFlags{})
	assert.Equal(t, domain.MediaFlags{CameraOn: true, AudioOn: true}, snapshot.RoomUserStatus["x"])
}

func TestHub_PingPong(t *testing.T) {
	clock := newTestClock()
	hub := startHub(t, testConfig(clock))
	x := connect(t, hub, "x")

	emit(t, hub, x, domain.MessageTypePing, nil)
	pong := decode[domain.PongPayload](t, expectFrame(t, x, domain.MessageTypePong))
	assert.Equal(t, clock.Now().UnixMilli(), pong.Timestamp)
}

func TestHub_EvictionNotifiesParticipants(t *testing.T) {
	cfg := testConfig(newTestClock())
	cfg.Registry.Capacity = 1
	hub := startHub(t, cfg)

	x := connect(t, hub, "x")
	y := connect(t, hub, "y")
	join(t, hub, x, "a", "Alice", domain.MediaFlags{})
	join(t, hub, y, "b", "Bob", domain.MediaFlags{})

	notice := decode[domain.NoticePayload](t, expectFrame(t, x, domain.MessageTypeRoomDisposed))
	assert.NotEmpty(t, notice.Message)

	// x is detached from the disposed room
	emit(t, hub, x, domain.MessageTypeChat, domain.ChatPayload{Message: "hi", Name: "Alice"})
	flush(t, hub, x)
	assertQuiet(t, x)
}

func TestHub_TTLExpiryNotifiesParticipants(t *testing.T) {
	clock := newTestClock()
	hub := startHub(t, testConfig(clock))
	x := connect(t, hub, "x")
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})

	clock.Advance(domain.RoomTTL + time.Second)
	require.NoError(t, hub.call(context.Background(), hub.maintain))

	expectFrame(t, x, domain.MessageTypeRoomDisposed)
}

func TestHub_LeaveAfterTTLBeforePurge(t *testing.T) {
	clock := newTestClock()
	hub := startHub(t, testConfig(clock))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{})
	join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	expectFrame(t, x, domain.MessageTypeUserJoined)

	clock.Advance(domain.RoomTTL + time.Second)
	emit(t, hub, y, domain.MessageTypeLeaveRoom, nil)
	flush(t, hub, y)

	left := expectFrame(t, x, domain.MessageTypeUserLeft)
	assert.Equal(t, "y", left.FromID)

	require.NoError(t, hub.call(context.Background(), hub.maintain))
	disposed := expectFrame(t, x, domain.MessageTypeRoomDisposed)
	assert.NotEmpty(t, disposed.Payload)
	assertQuiet(t, y)
}

func TestHub_DuplicateIDRejected(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")

	dup := newMockClient(hub, "x")
	require.NoError(t, hub.Register(dup))
	flush(t, hub, x)

	_, open := <-dup.send
	assert.False(t, open, "duplicate client queue should be closed")

	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Connections.Current)
}

func TestHub_ShutdownNotice(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")

	require.NoError(t, hub.Shutdown(context.Background()))

	expectFrame(t, x, domain.MessageTypeServerShutdown)
	expectFrame(t, y, domain.MessageTypeServerShutdown)
}

func TestHub_StopClosesClientsAndRejectsRegistration(t *testing.T) {
	hub, err := NewHub(testConfig(newTestClock()))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	x := connect(t, hub, "x")
	cancel()
	<-hub.Done()

	_, open := <-x.send
	assert.False(t, open)
	assert.ErrorIs(t, hub.Register(newMockClient(hub, "late")), domain.ErrHubStopped)
	assert.False(t, hub.Dispatch(x, domain.Incoming{Type: domain.MessageTypePing}))
	_, err = hub.Stats(context.Background())
	assert.ErrorIs(t, err, domain.ErrHubStopped)
}

func TestHub_StatsAndHealth(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))
	x := connect(t, hub, "x")
	y := connect(t, hub, "y")
	join(t, hub, x, "abc", "Alice", domain.MediaFlags{ScreenShareOn: true})
	join(t, hub, y, "abc", "Bob", domain.MediaFlags{})
	expectFrame(t, x, domain.MessageTypeUserJoined)
	emit(t, hub, x, domain.MessageTypeChat, domain.ChatPayload{Message: "hi", Name: "Alice"})
	expectFrame(t, x, domain.MessageTypeChat)
	flush(t, hub, x)
	hub.Unregister(y)

	ctx := context.Background()
	stats, err := hub.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Connections.Current)
	assert.Equal(t, 2, stats.Connections.Peak)
	assert.Equal(t, uint64(2), stats.Connections.TotalServed)
	assert.Equal(t, 1, stats.Rooms)
	assert.Equal(t, 1, stats.Participants)
	assert.False(t, stats.BusEnabled)

	health, err := hub.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Connections)
	assert.Equal(t, uint64(1), health.Messages)

	room, err := hub.RoomStats(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, room.Participants)
	assert.Equal(t, 1, room.ScreenShares)
	assert.Equal(t, 1, room.HistorySize)

	_, err = hub.RoomStats(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestHub_ConcurrentConnections(t *testing.T) {
	hub := startHub(t, testConfig(newTestClock()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newMockClient(hub, uuid.NewString())
			if hub.Register(c) != nil {
				return
			}
			raw, _ := json.Marshal(domain.JoinRoomPayload{RoomID: "busy", Name: "user"})
			hub.Dispatch(c, domain.Incoming{Type: domain.MessageTypeJoinRoom, Payload: raw})
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Connections.Current)
	assert.Equal(t, 0, stats.Participants)
}

func TestHub_CrossProcessDelivery(t *testing.T) {
	shared := bus.NewMemoryBus()
	t.Cleanup(func() { shared.Close() })

	cfg1 := testConfig(newTestClock())
	cfg1.Bus = shared
	cfg2 := testConfig(newTestClock())
	cfg2.Bus = shared
	node1 := startHub(t, cfg1)
	node2 := startHub(t, cfg2)
	require.NotEqual(t, node1.NodeID(), node2.NodeID())

	x := connect(t, node1, "x")
	y := connect(t, node2, "y")

	join(t, node1, x, "abc", "Alice", domain.MediaFlags{})
	join(t, node2, y, "abc", "Bob", domain.MediaFlags{})

	// broadcasts cross the bus asynchronously, so other frames may interleave
	joined := decode[domain.UserJoinedPayload](t, awaitFrame(t, x, domain.MessageTypeUserJoined))
	assert.Equal(t, "y", joined.UserID)

	emit(t, node2, y, domain.MessageTypeOffer, map[string]any{"to": "x", "sdp": "v=0"})
	offer := awaitFrame(t, x, domain.MessageTypeOffer)
	assert.Equal(t, "y", offer.FromID)

	emit(t, node1, x, domain.MessageTypeChat, domain.ChatPayload{Message: "hi", Name: "Alice"})
	awaitFrame(t, x, domain.MessageTypeChat)
	remoteChat := decode[domain.ChatMessage](t, awaitFrame(t, y, domain.MessageTypeChat))
	assert.Equal(t, "hi", remoteChat.Message)
}
