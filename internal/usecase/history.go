package usecase

import "github.com/mmuslimabdulj/meetup-signal/internal/domain"

// History is a fixed-size circular buffer of chat messages.
// Appending past capacity overwrites the oldest entry.
type History struct {
	data []domain.ChatMessage
	head int // next write position
	size int // current number of elements
	cap  int // maximum capacity
}

// NewHistory creates a history holding at most capacity messages
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		data: make([]domain.ChatMessage, capacity),
		cap:  capacity,
	}
}

// Add appends a message, evicting the oldest if full
func (h *History) Add(msg domain.ChatMessage) {
	h.data[h.head] = msg
	h.head = (h.head + 1) % h.cap

	if h.size < h.cap {
		h.size++
	}
}

// All returns the retained messages oldest first
func (h *History) All() []domain.ChatMessage {
	if h.size == 0 {
		return nil
	}

	result := make([]domain.ChatMessage, h.size)

	if h.size < h.cap {
		copy(result, h.data[:h.size])
	} else {
		// head points at the oldest element once the buffer has wrapped
		copy(result, h.data[h.head:])
		copy(result[h.cap-h.head:], h.data[:h.head])
	}

	return result
}

// Len returns the current number of elements
func (h *History) Len() int {
	return h.size
}

// Clear removes all elements
func (h *History) Clear() {
	h.head = 0
	h.size = 0
	for i := range h.data {
		h.data[i] = domain.ChatMessage{}
	}
}
