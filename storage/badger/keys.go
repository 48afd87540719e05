package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/faqit/core"
)

// Key prefixes for the faqit keyspace.
const (
	entryPrefix      = "kbent"
	entryIDSeq       = "kbentseq"
	queryLogPrefix   = "qlog"
	queryLogIDSeq    = "qlogseq"
	runProgressKey   = "runprog"
	runResultKey     = "runres"
	runErrorsKey     = "runerr"
)

// makeEntryKey generates a key for a knowledge entry by ID.
func makeEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entryPrefix, id))
}

// makeQueryLogKey generates a composite key for a query log row.
// Format: prefix:timestamp:id, with both fixed-width BigEndian so
// lexicographic iteration equals chronological order.
func makeQueryLogKey(createdAt time.Time, id core.ID) []byte {
	prefix := queryLogPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialQueryLogKey generates a partial key for time range scans.
// Format: prefix:timestamp
func makePartialQueryLogKey(createdAt time.Time) []byte {
	prefix := queryLogPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	return buf
}

// makeRunProgressKey generates the key for a run's in-flight state.
func makeRunProgressKey(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", runProgressKey, runID))
}

// makeRunResultKey generates the key for a run's final report.
func makeRunResultKey(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", runResultKey, runID))
}

// makeRunErrorsKey generates the key for a run's persisted error list.
func makeRunErrorsKey(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", runErrorsKey, runID))
}
