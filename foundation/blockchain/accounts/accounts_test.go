package accounts_test

import (
	"testing"

	"github.com/ledgerd/powchain/foundation/blockchain/accounts"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestApplyBlock(t *testing.T) {
	type table struct {
		name   string
		blocks []database.Block
		final  map[database.AccountID]int64
	}

	coinbase := func(miner database.AccountID, reward uint64) database.Tx {
		return database.NewTxAt(miner, miner, reward, true, 1)
	}
	transfer := func(from, to database.AccountID, amount uint64) database.Tx {
		return database.NewTxAt(from, to, amount, false, 1)
	}

	tt := []table{
		{
			name: "basic",
			blocks: []database.Block{
				database.Genesis(),
				database.NewBlock([]database.Tx{coinbase("miner", 10), transfer("bill", "ana", 5)}, "", 1, 0),
				database.NewBlock([]database.Tx{coinbase("miner", 10), transfer("miner", "ana", 7)}, "", 2, 0),
			},
			final: map[database.AccountID]int64{
				"miner": 13,
				"bill":  -5,
				"ana":   12,
			},
		},
	}

	t.Log("Given the need to derive balances from the chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of blocks.", testID)
			{
				f := func(t *testing.T) {
					act := accounts.FromBlocks(tst.blocks)

					copied := act.Copy()
					if len(copied) != len(tst.final) {
						t.Fatalf("\t%s\tTest %d:\tShould have %d accounts, got %d.", failed, testID, len(tst.final), len(copied))
					}

					for account, exp := range tst.final {
						info, exists := act.Query(account)
						if !exists {
							t.Fatalf("\t%s\tTest %d:\tShould have account %s.", failed, testID, account)
						}

						if info.Balance != exp {
							t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, info.Balance)
							t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, exp)
							t.Fatalf("\t%s\tTest %d:\tShould have correct balance for %s.", failed, testID, account)
						}
						t.Logf("\t%s\tTest %d:\tShould have correct balance for %s.", success, testID, account)
					}

					if info, _ := act.Query("miner"); info.Mined != 20 || info.Sent != 7 {
						t.Fatalf("\t%s\tTest %d:\tShould track mined and sent amounts: %+v", failed, testID, info)
					}
					t.Logf("\t%s\tTest %d:\tShould track mined and sent amounts.", success, testID)

					act.Reset(tst.blocks[:1])
					if len(act.Copy()) != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould have no accounts after reset to genesis.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have no accounts after reset to genesis.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
