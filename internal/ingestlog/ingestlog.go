package ingestlog

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies what happened to one document during ingestion.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected"
	OutcomeResponse Outcome = "response"
)

// Entry is one per-document outcome line.
type Entry struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	FileName  string    `json:"file_name"`
	Clave     string    `json:"clave,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives appended entries. The default is the in-memory ring buffer;
// tests and alternative backends inject their own.
type Sink interface {
	Append(e Entry)
	Entries() []Entry
	Clear()
}

// Service is the per-channel ingestion log handed to the pipeline explicitly
// instead of living in ambient storage.
type Service struct {
	channel string
	sink    Sink
}

func NewService(channel string, sink Sink) *Service {
	if sink == nil {
		sink = NewRingBuffer(DefaultCapacity)
	}
	return &Service{channel: channel, sink: sink}
}

// Record appends one outcome line.
func (s *Service) Record(fileName, clave string, outcome Outcome, detail string) {
	s.sink.Append(Entry{
		ID:        uuid.NewString(),
		Channel:   s.channel,
		FileName:  fileName,
		Clave:     clave,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
}

// Entries returns the retained log, oldest first, optionally restricted to
// one outcome. An empty outcome returns everything.
func (s *Service) Entries(outcome Outcome) []Entry {
	all := s.sink.Entries()
	if outcome == "" {
		return all
	}

	filtered := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.Outcome == outcome {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Clear drops the retained log.
func (s *Service) Clear() {
	s.sink.Clear()
}
