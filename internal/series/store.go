// Package series holds the per-source, timestamp-ordered record sequences and
// resolves plotting and statistics windows against them.
//
// A Store has exactly one writer and is read on the same goroutine, so it
// carries no locking.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/banshee-data/humidity.report/internal/record"
)

var (
	// ErrSchemaMismatch is returned when a record is appended under a key
	// whose established schema it does not follow.
	ErrSchemaMismatch = errors.New("record schema does not match series")
	// ErrNoData is returned by queries that need at least one record.
	ErrNoData = errors.New("no data")
)

// Series is the ordered sequence of records for one source.
type Series struct {
	key     record.SourceKey
	records []record.Record
}

// Key returns the source this series belongs to.
func (s *Series) Key() record.SourceKey { return s.key }

// Len returns the number of records.
func (s *Series) Len() int { return len(s.records) }

// At returns the i-th record in timestamp order.
func (s *Series) At(i int) record.Record { return s.records[i] }

// Records returns a copy of the records in timestamp order.
func (s *Series) Records() []record.Record {
	out := make([]record.Record, len(s.records))
	copy(out, s.records)
	return out
}

// First returns the earliest timestamp.
func (s *Series) First() time.Time { return s.records[0].Timestamp() }

// Last returns the latest timestamp.
func (s *Series) Last() time.Time { return s.records[len(s.records)-1].Timestamp() }

// Between returns the records with from <= timestamp <= to.
func (s *Series) Between(from, to time.Time) []record.Record {
	lo := sort.Search(len(s.records), func(i int) bool {
		return !s.records[i].Timestamp().Before(from)
	})
	hi := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Timestamp().After(to)
	})
	if lo >= hi {
		return nil
	}
	return s.records[lo:hi]
}

// insert places rec after any records sharing its timestamp, keeping arrival
// order stable for duplicates.
func (s *Series) insert(rec record.Record) {
	ts := rec.Timestamp()
	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Timestamp().After(ts)
	})
	s.records = append(s.records, record.Record{})
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = rec
}

// Store maps each source key to its series.
type Store struct {
	series map[record.SourceKey]*Series
	keys   []record.SourceKey // kept sorted
	total  int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{series: make(map[record.SourceKey]*Series)}
}

// Append inserts rec into the series for key, creating the series on first
// use. The record's own source must equal key.
func (st *Store) Append(key record.SourceKey, rec record.Record) error {
	if rec.Source() != key {
		return fmt.Errorf("%w: %s record appended under %s", ErrSchemaMismatch, rec.Source(), key)
	}

	s, ok := st.series[key]
	if !ok {
		s = &Series{key: key}
		st.series[key] = s
		i := sort.Search(len(st.keys), func(i int) bool { return key.Less(st.keys[i]) })
		st.keys = append(st.keys, record.SourceKey{})
		copy(st.keys[i+1:], st.keys[i:])
		st.keys[i] = key
	}

	s.insert(rec)
	st.total++
	return nil
}

// Keys returns the source keys in ascending order: Weather first, then
// sensors by number.
func (st *Store) Keys() []record.SourceKey {
	out := make([]record.SourceKey, len(st.keys))
	copy(out, st.keys)
	return out
}

// Series returns the series for key, or nil.
func (st *Store) Series(key record.SourceKey) *Series {
	return st.series[key]
}

// Len returns the total number of records across all series.
func (st *Store) Len() int { return st.total }

// HasWeather reports whether any weather records were ingested.
func (st *Store) HasWeather() bool {
	s := st.series[record.Weather]
	return s != nil && s.Len() > 0
}

// HasSensors reports whether any sensor records were ingested.
func (st *Store) HasSensors() bool {
	for _, k := range st.keys {
		if !k.IsWeather() && st.series[k].Len() > 0 {
			return true
		}
	}
	return false
}

// Span returns the earliest first and latest last timestamp over all series.
func (st *Store) Span() (Span, bool) {
	var sp Span
	found := false
	for _, k := range st.keys {
		s := st.series[k]
		if s.Len() == 0 {
			continue
		}
		if !found || s.First().Before(sp.Start) {
			sp.Start = s.First()
		}
		if !found || s.Last().After(sp.End) {
			sp.End = s.Last()
		}
		found = true
	}
	return sp, found
}

// Timestamps returns the sorted union of all record timestamps, duplicates
// removed.
func (st *Store) Timestamps() []time.Time {
	out := make([]time.Time, 0, st.total)
	for _, k := range st.keys {
		for _, r := range st.series[k].records {
			out = append(out, r.Timestamp())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	uniq := out[:0]
	for i, ts := range out {
		if i == 0 || !ts.Equal(uniq[len(uniq)-1]) {
			uniq = append(uniq, ts)
		}
	}
	return uniq
}
