package usecase

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

// DisposeFunc is called with a room just before the registry forgets it.
// It runs synchronously on the caller's goroutine.
type DisposeFunc func(room *Room)

type registryEntry struct {
	room      *Room
	expiresAt time.Time
}

// RegistryConfig bounds the registry
type RegistryConfig struct {
	Capacity int
	TTL      time.Duration
	Limits   RoomLimits
}

// DefaultRegistryConfig returns the production registry bounds
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Capacity: domain.MaxRooms,
		TTL:      domain.RoomTTL,
		Limits:   DefaultRoomLimits(),
	}
}

// RoomRegistry is a bounded, time-evicted cache of rooms.
// Like Room, it is owned by the hub event loop and not safe for concurrent use.
type RoomRegistry struct {
	cache     *simplelru.LRU[string, *registryEntry]
	ttl       time.Duration
	limits    RoomLimits
	now       func() time.Time
	onDispose DisposeFunc
}

// NewRoomRegistry creates a registry. onDispose may be nil.
func NewRoomRegistry(cfg RegistryConfig, onDispose DisposeFunc, now func() time.Time) (*RoomRegistry, error) {
	if now == nil {
		now = time.Now
	}
	r := &RoomRegistry{
		ttl:       cfg.TTL,
		limits:    cfg.Limits,
		now:       now,
		onDispose: onDispose,
	}
	cache, err := simplelru.NewLRU[string, *registryEntry](cfg.Capacity, r.evicted)
	if err != nil {
		return nil, fmt.Errorf("create room cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

func (r *RoomRegistry) evicted(_ string, e *registryEntry) {
	if r.onDispose != nil {
		r.onDispose(e.room)
	}
}

// Lookup returns a live room and refreshes its recency and TTL. It never creates.
func (r *RoomRegistry) Lookup(roomID string) *Room {
	e, ok := r.cache.Get(roomID)
	if !ok {
		return nil
	}
	now := r.now()
	if now.After(e.expiresAt) {
		r.cache.Remove(roomID)
		return nil
	}
	e.expiresAt = now.Add(r.ttl)
	return e.room
}

// GetOrCreate returns the room for roomID, creating it if absent.
// Creating past capacity evicts the least recently used room first.
func (r *RoomRegistry) GetOrCreate(roomID string) (room *Room, created bool) {
	if room := r.Lookup(roomID); room != nil {
		return room, false
	}
	room = NewRoom(roomID, r.limits, r.now)
	r.cache.Add(roomID, &registryEntry{room: room, expiresAt: r.now().Add(r.ttl)})
	return room, true
}

// Peek returns a live room without touching its recency or TTL
func (r *RoomRegistry) Peek(roomID string) *Room {
	e, ok := r.cache.Peek(roomID)
	if !ok || r.now().After(e.expiresAt) {
		return nil
	}
	return e.room
}

// Cached returns the room even when its TTL has passed but it has not been
// purged yet. Recency and TTL are left alone.
func (r *RoomRegistry) Cached(roomID string) *Room {
	e, ok := r.cache.Peek(roomID)
	if !ok {
		return nil
	}
	return e.room
}

// Remove disposes of a room immediately
func (r *RoomRegistry) Remove(roomID string) bool {
	return r.cache.Remove(roomID)
}

// Rooms returns every live room, least recently used first
func (r *RoomRegistry) Rooms() []*Room {
	now := r.now()
	entries := r.cache.Values()
	rooms := make([]*Room, 0, len(entries))
	for _, e := range entries {
		if !now.After(e.expiresAt) {
			rooms = append(rooms, e.room)
		}
	}
	return rooms
}

// Len returns the number of cached rooms, including any not yet purged
func (r *RoomRegistry) Len() int {
	return r.cache.Len()
}

// PurgeExpired disposes of every room past its TTL and returns their ids
func (r *RoomRegistry) PurgeExpired() []string {
	now := r.now()
	var purged []string
	for _, id := range r.cache.Keys() {
		e, ok := r.cache.Peek(id)
		if ok && now.After(e.expiresAt) {
			r.cache.Remove(id)
			purged = append(purged, id)
		}
	}
	return purged
}

// EvictIdle disposes of every empty room idle for longer than idle
func (r *RoomRegistry) EvictIdle(idle time.Duration) []string {
	now := r.now()
	var evicted []string
	for _, id := range r.cache.Keys() {
		e, ok := r.cache.Peek(id)
		if ok && e.room.IsEmpty() && e.room.IdleFor(now) > idle {
			r.cache.Remove(id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// EmptyRooms counts rooms with no participants
func (r *RoomRegistry) EmptyRooms() int {
	n := 0
	for _, e := range r.cache.Values() {
		if e.room.IsEmpty() {
			n++
		}
	}
	return n
}
