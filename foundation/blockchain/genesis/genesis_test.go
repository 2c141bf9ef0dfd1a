package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerd/powchain/foundation/blockchain/genesis"
)

func Test_Load(t *testing.T) {
	type table struct {
		name       string
		content    string
		difficulty uint
		reward     uint64
		fail       bool
	}

	tt := []table{
		{name: "defaults", content: `{}`, difficulty: genesis.DefaultDifficulty, reward: genesis.DefaultMiningReward},
		{name: "override", content: `{"difficulty": 2, "mining_reward": 50}`, difficulty: 2, reward: 50},
		{name: "too difficult", content: `{"difficulty": 65}`, fail: true},
		{name: "no reward", content: `{"mining_reward": 0}`, fail: true},
		{name: "bad json", content: `{`, fail: true},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(tst.content), 0600); err != nil {
				t.Fatalf("Test %s:\tShould be able to write the file: %s", tst.name, err)
			}

			gen, err := genesis.Load(path)
			if tst.fail {
				if err == nil {
					t.Fatalf("Test %s:\tShould not be able to load the file.", tst.name)
				}
				return
			}

			if err != nil {
				t.Fatalf("Test %s:\tShould be able to load the file: %s", tst.name, err)
			}

			if gen.Difficulty != tst.difficulty || gen.MiningReward != tst.reward {
				t.Logf("Test %s:\tgot: %d %d", tst.name, gen.Difficulty, gen.MiningReward)
				t.Logf("Test %s:\texp: %d %d", tst.name, tst.difficulty, tst.reward)
				t.Fatalf("Test %s:\tShould get back the right values.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Block(t *testing.T) {
	gen := genesis.Default()

	b := gen.Block()
	if len(b.Transactions) != 0 || b.PreviousHash != "" || b.Timestamp != 1337 || b.Nonce != 0 || b.Difficulty != 0 {
		t.Fatalf("Should get back the fixed genesis block: %+v", b)
	}

	if b.Hash() != genesis.Default().Block().Hash() {
		t.Fatalf("Should get back the same genesis hash every time.")
	}

	if hard := (genesis.Genesis{Difficulty: 6, MiningReward: 1}); hard.Block().Hash() != b.Hash() {
		t.Fatalf("Should get back the same genesis hash for any difficulty.")
	}

	if _, err := genesis.Load(""); err != nil {
		t.Fatalf("Should get the defaults with no path: %s", err)
	}
}
