package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
)

// SectionEntry is one file within a Section, the per-day list of files
// the fragment engine maintains. Entries are ordered (TimeStamp
// ascending, FileID lexicographic ascending).
type SectionEntry struct {
	TimeStamp int64
	FileID    string
	Width     int32
	Height    int32
}

// Section is the ordered list of files whose last_modified falls in the
// same calendar day, under an album's configured time zone. It
// marshals as a JSON array of 4-element positional tuples to keep the
// wire and on-disk encoding compact:
//
//	[[ts, file_id, width, height], ...]
type Section struct {
	Entries []SectionEntry
}

// Sort orders Entries by (TimeStamp, FileID) ascending, the order the
// wire format requires.
func (s *Section) Sort() {
	sort.Slice(s.Entries, func(i, j int) bool {
		a, b := s.Entries[i], s.Entries[j]
		if a.TimeStamp != b.TimeStamp {
			return a.TimeStamp < b.TimeStamp
		}
		return a.FileID < b.FileID
	})
}

func (s Section) MarshalJSON() ([]byte, error) {
	tuples := make([][4]interface{}, len(s.Entries))
	for i, e := range s.Entries {
		tuples[i] = [4]interface{}{e.TimeStamp, e.FileID, e.Width, e.Height}
	}
	return json.Marshal(tuples)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entries := make([]SectionEntry, 0, len(raw))
	for _, r := range raw {
		var tuple [4]json.RawMessage
		if err := json.Unmarshal(r, &tuple); err != nil {
			return fmt.Errorf("wire: section entry: %w", err)
		}
		var e SectionEntry
		if err := json.Unmarshal(tuple[0], &e.TimeStamp); err != nil {
			return err
		}
		if err := json.Unmarshal(tuple[1], &e.FileID); err != nil {
			return err
		}
		if err := json.Unmarshal(tuple[2], &e.Width); err != nil {
			return err
		}
		if err := json.Unmarshal(tuple[3], &e.Height); err != nil {
			return err
		}
		entries = append(entries, e)
	}
	s.Entries = entries
	return nil
}

// TopEntry points from a day bucket to the Section fragment holding
// that day's files.
type TopEntry struct {
	DayTimeStamp int64
	FragmentID   uint64
	Length       uint64
}

// Top is an album's per-day index of Sections, ordered by DayTimeStamp
// ascending. It marshals the same way Section does:
//
//	[[day_ts, fragment_id, length], ...]
type Top struct {
	Entries []TopEntry
}

// Sort orders Entries by DayTimeStamp ascending.
func (t *Top) Sort() {
	sort.Slice(t.Entries, func(i, j int) bool {
		return t.Entries[i].DayTimeStamp < t.Entries[j].DayTimeStamp
	})
}

func (t Top) MarshalJSON() ([]byte, error) {
	tuples := make([][3]interface{}, len(t.Entries))
	for i, e := range t.Entries {
		tuples[i] = [3]interface{}{e.DayTimeStamp, e.FragmentID, e.Length}
	}
	return json.Marshal(tuples)
}

func (t *Top) UnmarshalJSON(data []byte) error {
	var raw [][3]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entries := make([]TopEntry, 0, len(raw))
	for _, tuple := range raw {
		entries = append(entries, TopEntry{
			DayTimeStamp: tuple[0],
			FragmentID:   uint64(tuple[1]),
			Length:       uint64(tuple[2]),
		})
	}
	t.Entries = entries
	return nil
}

// FragmentKey builds the fragments-tree key for fragmentID within
// albumID: album_id_bytes || '.' || fragment_id as 8-byte big-endian.
// Big-endian gives lexicographic order by id within an album, and the
// album id makes a clean per-album scan prefix.
func FragmentKey(albumID string, fragmentID uint64) []byte {
	key := make([]byte, 0, len(albumID)+1+8)
	key = append(key, albumID...)
	key = append(key, '.')
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], fragmentID)
	key = append(key, idBytes[:]...)
	return key
}

// FragmentPrefix returns the scan prefix covering every fragment of
// albumID.
func FragmentPrefix(albumID string) []byte {
	return append([]byte(albumID), '.')
}

// ParseFragmentKey splits a fragments-tree key back into its album id
// and fragment id. It returns false if key does not have the expected
// shape.
func ParseFragmentKey(key []byte) (albumID string, fragmentID uint64, ok bool) {
	if len(key) < 9 {
		return "", 0, false
	}
	sep := len(key) - 9
	if key[sep] != '.' {
		return "", 0, false
	}
	return string(key[:sep]), binary.BigEndian.Uint64(key[sep+1:]), true
}

// CompositeKey joins parts with '.' the way every composite key in the
// store is built (user_id.session_key, owner_id.name, file_id.album_id,
// and so on). Parts must never themselves contain '.'; ids are random
// URL-safe base64 bytes, which cannot produce one.
func CompositeKey(parts ...string) []byte {
	return []byte(bytes.Join(toByteSlices(parts), []byte{'.'}))
}

func toByteSlices(parts []string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}

// SplitComposite splits a CompositeKey-built key on its first '.' into
// the two parts every two-part composite key in the store uses
// (user_id.album_id, album_id.user_id, album_id.file_id, owner_id.name).
// It returns ok=false if key has no '.'.
func SplitComposite(key []byte) (first, second string, ok bool) {
	for i, b := range key {
		if b == '.' {
			return string(key[:i]), string(key[i+1:]), true
		}
	}
	return "", "", false
}
