// Package genesis maintains access to the genesis configuration and the
// genesis block every chain starts with.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// Default values used when the genesis file doesn't set them.
const (
	DefaultDifficulty   = 4
	DefaultMiningReward = 10
)

// maxDifficulty is the number of hex characters in a hash.
const maxDifficulty = 64

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`
	ChainID      uint16    `json:"chain_id"`      // The chain id represents an unique id for this running instance.
	Difficulty   uint      `json:"difficulty"`    // How difficult it needs to be to solve the work problem.
	MiningReward uint64    `json:"mining_reward"` // Reward for mining a block.
}

// Default returns the genesis configuration used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:         time.Unix(0, 0).UTC(),
		ChainID:      1,
		Difficulty:   DefaultDifficulty,
		MiningReward: DefaultMiningReward,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep their default values. An empty path returns the defaults.
func Load(path string) (Genesis, error) {
	genesis := Default()
	if path == "" {
		return genesis, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the configuration can be mined against.
func (g Genesis) Validate() error {
	if g.Difficulty > maxDifficulty {
		return fmt.Errorf("difficulty %d exceeds %d", g.Difficulty, maxDifficulty)
	}

	if g.MiningReward == 0 {
		return errors.New("mining reward must be greater than zero")
	}

	return nil
}

// Block returns the genesis block. It is identical on every node.
func (Genesis) Block() database.Block {
	return database.Genesis()
}
