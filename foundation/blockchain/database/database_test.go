package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/database/storage/memory"
	"github.com/ledgerd/powchain/foundation/blockchain/identity"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkMiner = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkUser  = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

// =============================================================================

func Test_Transactions(t *testing.T) {
	miner := signer(t, pkMiner)
	user := signer(t, pkUser)

	tx, err := database.NewTx(database.AccountID(user.Address()), database.AccountID(miner.Address()), 5, false).Sign(user)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign transaction: %v", failed, err)
	}

	type table struct {
		name  string
		tx    func() database.Tx
		valid bool
	}

	tt := []table{
		{name: "signed", tx: func() database.Tx { return tx }, valid: true},
		{name: "unsigned", tx: func() database.Tx { cpy := tx; cpy.Signature = ""; return cpy }},
		{name: "amount", tx: func() database.Tx { cpy := tx; cpy.Amount = 500; return cpy }},
		{name: "recipient", tx: func() database.Tx { cpy := tx; cpy.Recipient = database.AccountID(user.Address()); return cpy }},
		{name: "timestamp", tx: func() database.Tx { cpy := tx; cpy.Timestamp++; return cpy }},
		{name: "coinbase flag", tx: func() database.Tx { cpy := tx; cpy.Coinbase = true; return cpy }},
		{name: "sender", tx: func() database.Tx { cpy := tx; cpy.Sender = database.AccountID(miner.Address()); return cpy }},
		{name: "bad sender", tx: func() database.Tx { cpy := tx; cpy.Sender = "0x1234"; return cpy }},
	}

	t.Log("Given the need to validate signed transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				err := tst.tx().Validate()

				switch {
				case tst.valid && err != nil:
					t.Fatalf("\t%s\tTest %d:\tShould validate the transaction: %v", failed, testID, err)
				case !tst.valid && err == nil:
					t.Fatalf("\t%s\tTest %d:\tShould not validate the transaction.", failed, testID)
				case !tst.valid && !errors.Is(err, database.ErrValidation):
					t.Fatalf("\t%s\tTest %d:\tShould get a validation error: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould validate the %s transaction correctly.", success, testID, tst.name)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ProofOfWork(t *testing.T) {
	miner := signer(t, pkMiner)
	user := signer(t, pkUser)

	tx, err := database.NewTx(database.AccountID(user.Address()), database.AccountID(miner.Address()), 5, false).Sign(user)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign transaction: %v", failed, err)
	}

	t.Log("Given the need to mine a block.")
	{
		args := database.POWArgs{
			Signer:     miner,
			Difficulty: 2,
			Reward:     10,
			PrevBlock:  database.Genesis(),
			Trans:      []database.Tx{tx},
		}

		block, err := database.POW(context.Background(), args)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		if !database.ValidateBlock(block) {
			t.Fatalf("\t%s\tShould produce a block that solves the difficulty: %s", failed, block.Hash())
		}
		t.Logf("\t%s\tShould produce a block that solves the difficulty.", success)

		if block.PreviousHash != database.Genesis().Hash() {
			t.Fatalf("\t%s\tShould link to the previous block.", failed)
		}
		t.Logf("\t%s\tShould link to the previous block.", success)

		if len(block.Transactions) != 2 {
			t.Fatalf("\t%s\tShould have two transactions, got %d.", failed, len(block.Transactions))
		}
		t.Logf("\t%s\tShould have two transactions.", success)

		coinbase := block.Transactions[0]
		if !coinbase.Coinbase || coinbase.Amount != 10 || string(coinbase.Recipient) != miner.Address() || !coinbase.IsValid() {
			t.Fatalf("\t%s\tShould have a signed coinbase first: %s", failed, coinbase)
		}
		t.Logf("\t%s\tShould have a signed coinbase first.", success)

		if block.Transactions[1] != tx {
			t.Fatalf("\t%s\tShould keep the pending transaction unchanged.", failed)
		}
		t.Logf("\t%s\tShould keep the pending transaction unchanged.", success)
	}

	t.Log("Given the need to stop mining.")
	{
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		args := database.POWArgs{
			Signer:     miner,
			Difficulty: 64,
			Reward:     10,
			PrevBlock:  database.Genesis(),
		}

		if _, err := database.POW(ctx, args); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould get a cancelled error, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get a cancelled error.", success)
	}

	t.Log("Given the need to mine with zero difficulty.")
	{
		block := database.NewBlock(nil, database.Genesis().Hash(), 1, 0)
		if err := database.ProofOfWork(context.Background(), &block, nil); err != nil {
			t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
		}

		if block.Nonce != 0 {
			t.Fatalf("\t%s\tShould solve on the first nonce, got %d.", failed, block.Nonce)
		}
		t.Logf("\t%s\tShould solve on the first nonce.", success)
	}
}

func Test_ValidateChain(t *testing.T) {
	miner := signer(t, pkMiner)
	chain := mineChain(t, miner, 3, 1)

	t.Log("Given the need to validate a chain of blocks.")
	{
		if !database.ValidateChain(chain) {
			t.Fatalf("\t%s\tShould validate the mined chain: %v", failed, database.ValidateChainErr(chain))
		}
		t.Logf("\t%s\tShould validate the mined chain.", success)

		if !database.ValidateChain([]database.Block{database.Genesis()}) {
			t.Fatalf("\t%s\tShould validate a chain with only genesis.", failed)
		}
		t.Logf("\t%s\tShould validate a chain with only genesis.", success)

		relinked := copyChain(chain)
		relinked[2].PreviousHash = relinked[0].Hash()
		if database.ValidateChain(relinked) {
			t.Fatalf("\t%s\tShould not validate a chain with a broken link.", failed)
		}
		t.Logf("\t%s\tShould not validate a chain with a broken link.", success)

		tampered := copyChain(chain)
		tampered[1].Transactions[0].Amount = 1_000_000
		err := database.ValidateChainErr(tampered)
		if !errors.Is(err, database.ErrValidation) {
			t.Fatalf("\t%s\tShould not validate a chain with a tampered block: %v", failed, err)
		}
		t.Logf("\t%s\tShould not validate a chain with a tampered block.", success)

		if chain[1].Transactions[0].Amount == 1_000_000 {
			t.Fatalf("\t%s\tShould not share memory between chain copies.", failed)
		}
		t.Logf("\t%s\tShould not share memory between chain copies.", success)
	}
}

func Test_Database(t *testing.T) {
	miner := signer(t, pkMiner)

	t.Log("Given the need to store the chain.")
	{
		mem, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the serializer: %v", failed, err)
		}

		db, err := database.New(mem, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open the database.", success)

		if db.Length() != 1 || !db.LatestBlock().IsGenesis() {
			t.Fatalf("\t%s\tShould start with the genesis block.", failed)
		}
		t.Logf("\t%s\tShould start with the genesis block.", success)

		block := mine(t, miner, db.LatestBlock(), 1)
		if err := db.Append(block); err != nil {
			t.Fatalf("\t%s\tShould be able to append a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to append a block.", success)

		if err := db.Append(block); !errors.Is(err, database.ErrDuplicate) {
			t.Fatalf("\t%s\tShould reject the same block twice, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject the same block twice.", success)

		fork := mine(t, miner, database.Genesis(), 2)
		err = db.Append(fork)
		if !errors.Is(err, database.ErrChainForked) || !database.IsRejected(err) {
			t.Fatalf("\t%s\tShould reject a block that doesn't link to the tip, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a block that doesn't link to the tip.", success)

		if !db.ContainsTx(block.Transactions[0].Signature) {
			t.Fatalf("\t%s\tShould know which transactions are in the chain.", failed)
		}
		t.Logf("\t%s\tShould know which transactions are in the chain.", success)

		if !db.Contains(block.Hash()) || db.Contains(fork.Hash()) {
			t.Fatalf("\t%s\tShould know which blocks are in the chain.", failed)
		}
		t.Logf("\t%s\tShould know which blocks are in the chain.", success)

		reload, err := database.New(mem, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reload the database: %v", failed, err)
		}

		if reload.Length() != 2 || reload.LatestBlock().Hash() != block.Hash() {
			t.Fatalf("\t%s\tShould reload the same chain, got %d blocks.", failed, reload.Length())
		}
		t.Logf("\t%s\tShould reload the same chain.", success)

		chain := mineChain(t, miner, 4, 2)
		if err := db.Replace(chain); err != nil {
			t.Fatalf("\t%s\tShould be able to replace the chain: %v", failed, err)
		}

		if db.Length() != 4 || db.LatestBlock().Hash() != chain[3].Hash() || db.Contains(block.Hash()) {
			t.Fatalf("\t%s\tShould hold the replacement chain.", failed)
		}
		t.Logf("\t%s\tShould hold the replacement chain.", success)

		if blocks := db.CopyRange(2, 10); len(blocks) != 2 {
			t.Fatalf("\t%s\tShould copy a clamped range, got %d.", failed, len(blocks))
		}
		t.Logf("\t%s\tShould copy a clamped range.", success)

		bd, err := mem.GetBlock(3)
		if err != nil || bd.Hash != chain[3].Hash() {
			t.Fatalf("\t%s\tShould have written the replacement chain to storage: %v", failed, err)
		}
		t.Logf("\t%s\tShould have written the replacement chain to storage.", success)
	}

	t.Log("Given the need to reject a tampered store.")
	{
		mem, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the serializer: %v", failed, err)
		}

		chain := mineChain(t, miner, 3, 1)
		chain[2].PreviousHash = chain[0].Hash()
		for i, block := range chain {
			if err := mem.Write(database.NewBlockData(uint64(i), block)); err != nil {
				t.Fatalf("\t%s\tShould be able to write block %d: %v", failed, i, err)
			}
		}

		if _, err := database.New(mem, nil); !errors.Is(err, database.ErrValidation) {
			t.Fatalf("\t%s\tShould not load an invalid chain, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould not load an invalid chain.", success)
	}
}

func Test_ReplaceWriteFailure(t *testing.T) {
	miner := signer(t, pkMiner)

	t.Log("Given a storage write failing while the chain is replaced.")
	{
		mem, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the serializer: %v", failed, err)
		}
		storage := failOnce{Memory: mem}

		db, err := database.New(&storage, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}

		for range 2 {
			if err := db.Append(mine(t, miner, db.LatestBlock(), 1)); err != nil {
				t.Fatalf("\t%s\tShould be able to append a block: %v", failed, err)
			}
		}
		local := db.Copy()

		storage.failAt, storage.armed = 1, true

		if err := db.Replace(mineChain(t, miner, 4, 2)); !errors.Is(err, errDiskFull) {
			t.Fatalf("\t%s\tShould return the write error, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould return the write error.", success)

		if db.Length() != 3 || db.LatestBlock().Hash() != local[2].Hash() || !db.ContainsTx(local[1].Transactions[0].Signature) {
			t.Fatalf("\t%s\tShould keep the previous chain in memory, got %d blocks.", failed, db.Length())
		}
		t.Logf("\t%s\tShould keep the previous chain in memory.", success)

		reload, err := database.New(mem, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reload the database: %v", failed, err)
		}

		if reload.Length() != 3 || reload.LatestBlock().Hash() != local[2].Hash() {
			t.Fatalf("\t%s\tShould keep the previous chain in storage, got %d blocks.", failed, reload.Length())
		}
		t.Logf("\t%s\tShould keep the previous chain in storage.", success)
	}
}

// =============================================================================

func signer(t *testing.T, hexKey string) *identity.Identity {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	return identity.FromPrivateKey(pk)
}

func mine(t *testing.T, miner *identity.Identity, prev database.Block, difficulty uint) database.Block {
	args := database.POWArgs{
		Signer:     miner,
		Difficulty: difficulty,
		Reward:     10,
		PrevBlock:  prev,
	}

	block, err := database.POW(context.Background(), args)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}

	return block
}

func mineChain(t *testing.T, miner *identity.Identity, length int, difficulty uint) []database.Block {
	chain := []database.Block{database.Genesis()}
	for len(chain) < length {
		chain = append(chain, mine(t, miner, chain[len(chain)-1], difficulty))
	}

	return chain
}

func copyChain(chain []database.Block) []database.Block {
	cpy := make([]database.Block, len(chain))
	for i, b := range chain {
		cpy[i] = b.Copy()
	}

	return cpy
}

var errDiskFull = errors.New("disk full")

// failOnce fails the first write of the block numbered failAt once armed.
type failOnce struct {
	*memory.Memory
	failAt uint64
	armed  bool
}

func (f *failOnce) Write(blockData database.BlockData) error {
	if f.armed && blockData.Number == f.failAt {
		f.armed = false
		return errDiskFull
	}

	return f.Memory.Write(blockData)
}
