package queue

import (
	"encoding/binary"
	"fmt"

	"github.com/perseid/argos/core"
)

// Key layout. Job records are keyed by item ID so at most one live job
// can exist per item. The ready and lease indices are ordered byte
// prefixes scanned by Lease and the sweeper respectively.
//
//	anajob:<itemID>                              job record
//	anajobid:<uuid>                              job UUID -> item ID
//	anajobrdy:<priority><notBefore BE><itemID BE> ready index
//	anajoblse:<expiry BE><itemID BE>             lease index
//	anajobdlq:<itemID>                           dead-lettered job record
const (
	jobRecordPrefix = "anajob:"
	jobIDPrefix     = "anajobid:"
	readyPrefix     = "anajobrdy:"
	leasePrefix     = "anajoblse:"
	deadPrefix      = "anajobdlq:"
)

func makeJobKey(itemID core.ID) []byte {
	return fmt.Appendf(nil, "%s%d", jobRecordPrefix, itemID)
}

func makeJobIDKey(jobID string) []byte {
	return []byte(jobIDPrefix + jobID)
}

func makeDeadKey(itemID core.ID) []byte {
	return fmt.Appendf(nil, "%s%d", deadPrefix, itemID)
}

// makeReadyKey builds a ready index key that sorts by priority, then
// not-before time (microseconds), then item ID.
func makeReadyKey(priority core.Priority, notBeforeMicro int64, itemID core.ID) []byte {
	key := make([]byte, 0, len(readyPrefix)+1+16)
	key = append(key, readyPrefix...)
	key = append(key, byte(priority))
	key = binary.BigEndian.AppendUint64(key, uint64(notBeforeMicro))
	key = binary.BigEndian.AppendUint64(key, uint64(itemID))
	return key
}

// parseReadyKey extracts the not-before time and item ID from a ready key.
func parseReadyKey(key []byte) (notBeforeMicro int64, itemID core.ID, ok bool) {
	if len(key) != len(readyPrefix)+1+16 {
		return 0, 0, false
	}
	body := key[len(readyPrefix)+1:]
	notBeforeMicro = int64(binary.BigEndian.Uint64(body[:8]))
	itemID = core.ID(binary.BigEndian.Uint64(body[8:]))
	return notBeforeMicro, itemID, true
}

// makeLeaseKey builds a lease index key that sorts by lease expiry
// (microseconds), then item ID.
func makeLeaseKey(expiryMicro int64, itemID core.ID) []byte {
	key := make([]byte, 0, len(leasePrefix)+16)
	key = append(key, leasePrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(expiryMicro))
	key = binary.BigEndian.AppendUint64(key, uint64(itemID))
	return key
}

// parseLeaseKey extracts the lease expiry and item ID from a lease key.
func parseLeaseKey(key []byte) (expiryMicro int64, itemID core.ID, ok bool) {
	if len(key) != len(leasePrefix)+16 {
		return 0, 0, false
	}
	body := key[len(leasePrefix):]
	expiryMicro = int64(binary.BigEndian.Uint64(body[:8]))
	itemID = core.ID(binary.BigEndian.Uint64(body[8:]))
	return expiryMicro, itemID, true
}
