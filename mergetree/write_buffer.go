// Package mergetree holds the in-memory buffer that groups versioned records
// by primary key and sequence order before replaying them through a merge
// function, the way merge-read and compaction pipelines do over sorted runs.
package mergetree

import (
	"github.com/tidwall/btree"

	"github.com/lakeform/lakeform"
	"github.com/lakeform/lakeform/compact"
)

type bufferEntry struct {
	kv lakeform.KeyValue

	// Arrival order breaks ties between records carrying the same key and
	// sequence number, keeping replay deterministic.
	arrival int
}

func bufferEntryLess(a, b *bufferEntry) bool {
	if comp := compareKeys(a.kv.Key, b.kv.Key); comp != 0 {
		return comp < 0
	}
	if a.kv.SequenceNumber != b.kv.SequenceNumber {
		return a.kv.SequenceNumber < b.kv.SequenceNumber
	}
	return a.arrival < b.arrival
}

// WriteBuffer accumulates records in (key, sequence number) order. It is not
// safe for concurrent use; one buffer belongs to one writer or compaction
// task.
type WriteBuffer struct {
	entries  *btree.Generic[*bufferEntry]
	arrivals int
}

func NewWriteBuffer() *WriteBuffer {
	return &WriteBuffer{
		entries: btree.NewGenericOptions[*bufferEntry](
			bufferEntryLess,
			btree.Options{
				NoLocks: true,
			},
		),
	}
}

func (b *WriteBuffer) Put(kv lakeform.KeyValue) {
	b.entries.Set(&bufferEntry{kv: kv, arrival: b.arrivals})
	b.arrivals++
}

func (b *WriteBuffer) Size() int {
	return b.entries.Len()
}

// ForEach replays the buffered records through the merge function, one key
// group at a time, and hands each merged result to collect. The result
// passed to collect is borrowed from the merge function; collect must copy
// it if it retains it.
func (b *WriteBuffer) ForEach(merger compact.MergeFunction, collect func(kv *lakeform.KeyValue) error) error {
	var groupKey lakeform.Row
	inGroup := false
	var innerErr error

	finishGroup := func() error {
		if !inGroup {
			return nil
		}
		if result := merger.GetResult(); result != nil {
			if err := collect(result); err != nil {
				return err
			}
		}
		return nil
	}

	b.entries.Scan(func(entry *bufferEntry) bool {
		if !inGroup || !sameKey(groupKey, entry.kv.Key) {
			if err := finishGroup(); err != nil {
				innerErr = err
				return false
			}
			merger.Reset()
			groupKey = entry.kv.Key
			inGroup = true
		}
		if err := merger.Add(entry.kv); err != nil {
			innerErr = err
			return false
		}
		return true
	})
	if innerErr != nil {
		return innerErr
	}

	return finishGroup()
}

func compareKeys(a, b lakeform.Row) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	for i := 0; i < maxLen; i++ {
		if i == len(a) {
			return -1
		} else if i == len(b) {
			return 1
		}
		if comp := a[i].Compare(b[i]); comp != 0 {
			return comp
		}
	}
	return 0
}

func sameKey(a, b lakeform.Row) bool {
	return compareKeys(a, b) == 0
}
