// Package store holds the rotating queue of flights shown on the display.
//
// The queue is rebuilt wholesale from each successful fetch, ordered nearest
// first, and consumed round-robin: the display pops the front flight and puts
// it back at the end once shown. A Store is owned by a single goroutine.
package store

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/coordinates"
)

// FilterPolicy decides which normalized records enter the queue.
type FilterPolicy int

const (
	// FilterAll keeps every well-formed record
	FilterAll FilterPolicy = iota

	// FilterDisplayable keeps only records with both a callsign and an altitude
	FilterDisplayable
)

// UnknownPositionPolicy places records without coordinates in the ordering.
type UnknownPositionPolicy int

const (
	// UnknownFirst treats a missing position as distance 0
	UnknownFirst UnknownPositionPolicy = iota

	// UnknownLast sorts records without a position after all others
	UnknownLast
)

// ParseFilterPolicy converts a configuration name ("all", "displayable").
func ParseFilterPolicy(s string) (FilterPolicy, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return FilterAll, nil
	case "displayable":
		return FilterDisplayable, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter policy %q", s)
	}
}

// ParseUnknownPositionPolicy converts a configuration name ("first", "last").
func ParseUnknownPositionPolicy(s string) (UnknownPositionPolicy, error) {
	switch strings.ToLower(s) {
	case "", "first":
		return UnknownFirst, nil
	case "last":
		return UnknownLast, nil
	default:
		return UnknownFirst, fmt.Errorf("unknown position policy %q", s)
	}
}

// Options configures a Store.
type Options struct {
	Filter          FilterPolicy
	UnknownPosition UnknownPositionPolicy
}

// RefreshResult reports what happened to one fetched batch.
type RefreshResult struct {
	Received  int // raw entries in the batch
	Kept      int // records now queued
	Malformed int // entries too short to parse
	Filtered  int // well-formed records dropped by the filter policy
}

// Store is the distance-ordered FIFO of flights.
type Store struct {
	reference coordinates.Geographic
	opts      Options
	queue     []adsb.FlightRecord
}

// New creates an empty store measuring distances from reference.
func New(reference coordinates.Geographic, opts Options) *Store {
	return &Store{reference: reference, opts: opts}
}

// Reference returns the point distances are measured from.
func (s *Store) Reference() coordinates.Geographic {
	return s.reference
}

// Refresh replaces the queue with the normalized, filtered and sorted batch.
// Malformed entries are skipped; nothing from the previous queue survives.
func (s *Store) Refresh(raws []adsb.RawState) RefreshResult {
	result := RefreshResult{Received: len(raws)}

	records, malformed := adsb.NormalizeStates(raws)
	result.Malformed = malformed

	kept := records[:0]
	for _, rec := range records {
		if !s.accept(rec) {
			result.Filtered++
			continue
		}
		kept = append(kept, rec)
	}

	// Distances are computed once per record, not per comparison
	keys := make([]float64, len(kept))
	for i, rec := range kept {
		keys[i] = s.sortKey(rec)
	}
	sort.Stable(byDistance{records: kept, keys: keys})

	s.queue = kept
	result.Kept = len(kept)
	return result
}

// Next pops the front of the queue.
func (s *Store) Next() (adsb.FlightRecord, bool) {
	if len(s.queue) == 0 {
		return adsb.FlightRecord{}, false
	}
	rec := s.queue[0]
	s.queue = s.queue[1:]
	return rec, true
}

// Requeue appends a shown record to the back of the queue.
func (s *Store) Requeue(rec adsb.FlightRecord) {
	s.queue = append(s.queue, rec)
}

// IsEmpty reports whether the queue has no records.
func (s *Store) IsEmpty() bool {
	return len(s.queue) == 0
}

// Len returns the number of queued records.
func (s *Store) Len() int {
	return len(s.queue)
}

// Snapshot returns a copy of the queue in display order.
func (s *Store) Snapshot() []adsb.FlightRecord {
	out := make([]adsb.FlightRecord, len(s.queue))
	copy(out, s.queue)
	return out
}

// Distance returns the distance of rec from the reference point in km.
func (s *Store) Distance(rec adsb.FlightRecord) float64 {
	return coordinates.DistanceFromReference(rec.Position, s.reference)
}

// Outside counts queued records whose known position lies outside box.
func (s *Store) Outside(box adsb.BoundingBox) int {
	n := 0
	for _, rec := range s.queue {
		if rec.Position != nil && !box.Contains(*rec.Position) {
			n++
		}
	}
	return n
}

func (s *Store) accept(rec adsb.FlightRecord) bool {
	if s.opts.Filter == FilterDisplayable {
		return rec.Callsign != "" && rec.AltitudeMeters != 0
	}
	return true
}

func (s *Store) sortKey(rec adsb.FlightRecord) float64 {
	if rec.Position == nil && s.opts.UnknownPosition == UnknownLast {
		return math.Inf(1)
	}
	return s.Distance(rec)
}

type byDistance struct {
	records []adsb.FlightRecord
	keys    []float64
}

func (b byDistance) Len() int           { return len(b.records) }
func (b byDistance) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byDistance) Swap(i, j int) {
	b.records[i], b.records[j] = b.records[j], b.records[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
