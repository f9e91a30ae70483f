package usecase

import "time"

// ConnectionStats tracks process-wide connection counts
type ConnectionStats struct {
	Current       int       `json:"current"`
	Peak          int       `json:"peak"`
	TotalServed   uint64    `json:"totalServed"`
	PeakTimestamp time.Time `json:"peakTimestamp"`
}

// Connected records a new connection at time t
func (s *ConnectionStats) Connected(t time.Time) {
	s.Current++
	s.TotalServed++
	if s.Current > s.Peak {
		s.Peak = s.Current
		s.PeakTimestamp = t
	}
}

// Disconnected records a closed connection
func (s *ConnectionStats) Disconnected() {
	if s.Current > 0 {
		s.Current--
	}
}
