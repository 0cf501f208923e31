package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/perseid/argos/core"
)

// Key prefixes for different data types
const (
	mediaItemPrefix      = "meditm"
	mediaItemAlbumPrefix = "meditma"
	mediaItemIDSeq       = "meditmseq"
	settingsKeyName      = "procset"
)

// makeMediaItemKey generates a key for a media item by ID.
func makeMediaItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", mediaItemPrefix, id))
}

// makeAlbumIndexKey generates a composite key for the album index.
// Format: prefix:albumID:itemID
func makeAlbumIndexKey(albumID, itemID core.ID) []byte {
	prefix := mediaItemAlbumPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for albumID + 8 bytes for itemID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(albumID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(itemID))
	return buf
}

// makePartialAlbumIndexKey generates a partial key for album scans.
// Format: prefix:albumID
func makePartialAlbumIndexKey(albumID core.ID) []byte {
	prefix := mediaItemAlbumPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for albumID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(albumID))
	return buf
}

// makeSettingsKey generates the key for the singleton settings record.
func makeSettingsKey() []byte {
	return []byte(settingsKeyName + ":cfg")
}
