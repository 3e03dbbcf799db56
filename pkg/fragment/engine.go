package fragment

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/metrics"
	"github.com/cuemby/photocore/pkg/tz"
	"github.com/cuemby/photocore/pkg/wire"
)

// state tracks the Engine's Opened -> Staged* -> Committed|Dropped
// lifecycle so Commit can refuse to run twice.
type state int

const (
	stateOpened state = iota
	stateCommitted
)

// cacheEntry is one in-memory Section awaiting commit, along with the
// fragment id it was read from (nil if the Section is new).
type cacheEntry struct {
	origID  *uint64
	section wire.Section
}

// Engine mutates one album's fragments inside tx. It is single-use: once
// Commit returns, the Engine must be discarded.
type Engine struct {
	tx      *kvstore.Tx
	albumID string
	album   *wire.Album

	cache map[int64]*cacheEntry
	top   wire.Top

	state state
}

// Empty writes a fresh, empty Top at fragment id 0 for albumID. Called
// once at album creation; the returned head is always 0.
func Empty(tx *kvstore.Tx, albumID string) (uint64, error) {
	data, err := json.Marshal(wire.Top{})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", catalogerr.ErrSerialization, err)
	}
	if err := tx.Put(kvstore.Fragments, wire.FragmentKey(albumID, 0), data); err != nil {
		return 0, err
	}
	return 0, nil
}

// Open reads and deserializes the Top referenced by album.FragmentHead,
// returning an Engine ready to stage mutations against it.
func Open(tx *kvstore.Tx, albumID string, album *wire.Album) (*Engine, error) {
	raw := tx.Get(kvstore.Fragments, wire.FragmentKey(albumID, album.FragmentHead))
	if raw == nil {
		return nil, fmt.Errorf("%w: album %s missing top fragment %d", catalogerr.ErrStorage, albumID, album.FragmentHead)
	}
	var top wire.Top
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: top fragment: %v", catalogerr.ErrSerialization, err)
	}
	return &Engine{
		tx:      tx,
		albumID: albumID,
		album:   album,
		cache:   make(map[int64]*cacheEntry),
		top:     top,
	}, nil
}

// Add stages fileID's inclusion in the Section for the calendar day
// file.Metadata.LastModified falls into, under the album's time zone.
func (e *Engine) Add(fileID string, file wire.File) error {
	return e.modifySection(file.Metadata.LastModified, func(s *wire.Section) {
		entry := wire.SectionEntry{
			TimeStamp: file.Metadata.LastModified,
			FileID:    fileID,
			Width:     file.Width,
			Height:    file.Height,
		}
		for i, existing := range s.Entries {
			if existing.FileID == fileID && existing.TimeStamp == entry.TimeStamp {
				s.Entries[i] = entry
				return
			}
		}
		s.Entries = append(s.Entries, entry)
		s.Sort()
	})
}

// Remove stages fileID's removal from the Section for the calendar day
// file.Metadata.LastModified falls into. Removing an absent file is a
// no-op, matching the idempotent-replay discipline the deletion journal
// relies on.
func (e *Engine) Remove(fileID string, file wire.File) error {
	return e.modifySection(file.Metadata.LastModified, func(s *wire.Section) {
		out := s.Entries[:0]
		for _, entry := range s.Entries {
			if entry.FileID == fileID && entry.TimeStamp == file.Metadata.LastModified {
				continue
			}
			out = append(out, entry)
		}
		s.Entries = out
	})
}

// ListFileIDs reads every file id across every Section the current Top
// references, bypassing the in-memory cache. Used before a time-zone
// rebucket and before an unshare cascade removes every file a user
// contributed.
func (e *Engine) ListFileIDs() ([]string, error) {
	var ids []string
	for _, entry := range e.top.Entries {
		section, err := e.read(entry.FragmentID)
		if err != nil {
			return nil, err
		}
		for _, se := range section.Entries {
			ids = append(ids, se.FileID)
		}
	}
	return ids, nil
}

// ClearAll stages removal of every Section referenced by the current
// Top. Used by the time-zone rebucket flow: callers read ListFileIDs
// first, call ClearAll, then re-Add every file id under the new zone.
func (e *Engine) ClearAll() error {
	for _, entry := range e.top.Entries {
		id := entry.FragmentID
		e.cache[entry.DayTimeStamp] = &cacheEntry{
			origID:  &id,
			section: wire.Section{},
		}
	}
	return nil
}

// modifySection opens (from cache, the store, or fresh) the Section for
// ts's day bucket and applies f to it.
func (e *Engine) modifySection(ts int64, f func(*wire.Section)) error {
	day, err := tz.DayBucket(ts, e.album.Description.TimeZone)
	if err != nil {
		return err
	}

	if entry, ok := e.cache[day]; ok {
		f(&entry.section)
		return nil
	}

	for _, top := range e.top.Entries {
		if top.DayTimeStamp == day {
			section, err := e.read(top.FragmentID)
			if err != nil {
				return err
			}
			f(&section)
			id := top.FragmentID
			e.cache[day] = &cacheEntry{origID: &id, section: section}
			return nil
		}
	}

	var section wire.Section
	f(&section)
	e.cache[day] = &cacheEntry{section: section}
	return nil
}

// Commit applies every staged mutation in commit-sequence order: delete
// the old Top, rewrite touched Sections under fresh ids (deleting their
// predecessors), write a fresh Top, then refresh the album's
// fragment_head/length/last_update/date_range. A no-op Engine (nothing
// staged) writes nothing at all.
func (e *Engine) Commit() (err error) {
	if e.state == stateCommitted {
		panic("fragment: engine committed twice")
	}
	e.state = stateCommitted

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.FragmentCommitDuration)
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.FragmentCommitsTotal.WithLabelValues(outcome).Inc()
	}()

	if len(e.cache) == 0 {
		return nil
	}

	if err := e.delete(e.album.FragmentHead); err != nil {
		return err
	}

	days := make([]int64, 0, len(e.cache))
	for day := range e.cache {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	for _, day := range days {
		entry := e.cache[day]

		if entry.origID != nil {
			if err := e.delete(*entry.origID); err != nil {
				return err
			}
		}

		prevLength := e.removeTopEntry(day)
		newLength := uint64(len(entry.section.Entries))

		if newLength > 0 {
			e.album.FragmentHead++
			if err := e.write(e.album.FragmentHead, entry.section); err != nil {
				return err
			}
			e.top.Entries = append(e.top.Entries, wire.TopEntry{
				DayTimeStamp: day,
				FragmentID:   e.album.FragmentHead,
				Length:       newLength,
			})
		}

		e.album.Length = e.album.Length + newLength - prevLength
	}
	e.top.Sort()

	e.album.FragmentHead++
	if err := e.write(e.album.FragmentHead, e.top); err != nil {
		return err
	}

	e.album.LastUpdate = time.Now().Unix()

	if len(e.top.Entries) == 0 {
		e.album.DateRange = nil
	} else {
		min, max := e.top.Entries[0].DayTimeStamp, e.top.Entries[0].DayTimeStamp
		for _, entry := range e.top.Entries {
			if entry.DayTimeStamp < min {
				min = entry.DayTimeStamp
			}
			if entry.DayTimeStamp > max {
				max = entry.DayTimeStamp
			}
		}
		e.album.DateRange = &wire.DateRange{Min: min, Max: max}
	}

	return nil
}

// removeTopEntry deletes day's entry from the in-memory Top (if
// present) and returns its prior length, or 0 if it wasn't there.
func (e *Engine) removeTopEntry(day int64) uint64 {
	for i, entry := range e.top.Entries {
		if entry.DayTimeStamp == day {
			length := entry.Length
			e.top.Entries = append(e.top.Entries[:i], e.top.Entries[i+1:]...)
			return length
		}
	}
	return 0
}

func (e *Engine) read(fragmentID uint64) (wire.Section, error) {
	raw := e.tx.Get(kvstore.Fragments, wire.FragmentKey(e.albumID, fragmentID))
	if raw == nil {
		return wire.Section{}, fmt.Errorf("%w: album %s missing fragment %d", catalogerr.ErrStorage, e.albumID, fragmentID)
	}
	var section wire.Section
	if err := json.Unmarshal(raw, &section); err != nil {
		return wire.Section{}, fmt.Errorf("%w: section fragment: %v", catalogerr.ErrSerialization, err)
	}
	return section, nil
}

func (e *Engine) write(fragmentID uint64, fragment json.Marshaler) error {
	data, err := fragment.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: %v", catalogerr.ErrSerialization, err)
	}
	return e.tx.Put(kvstore.Fragments, wire.FragmentKey(e.albumID, fragmentID), data)
}

func (e *Engine) delete(fragmentID uint64) error {
	return e.tx.Delete(kvstore.Fragments, wire.FragmentKey(e.albumID, fragmentID))
}
