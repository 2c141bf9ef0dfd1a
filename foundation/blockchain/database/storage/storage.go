// Package storage selects the serializer used to persist the blockchain.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/database/storage/boltdb"
	"github.com/ledgerd/powchain/foundation/blockchain/database/storage/disk"
	"github.com/ledgerd/powchain/foundation/blockchain/database/storage/memory"
)

// Set of supported serializer kinds.
const (
	KindMemory = "memory"
	KindDisk   = "disk"
	KindBolt   = "bolt"
)

// New constructs the serializer for the specified kind. For disk the path is
// a directory, for bolt the path is a directory holding blocks.db.
func New(kind string, path string) (database.Serializer, error) {
	switch kind {
	case KindMemory:
		return memory.New()

	case KindDisk:
		return disk.New(path)

	case KindBolt:
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		return boltdb.New(filepath.Join(path, "blocks.db"))
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
