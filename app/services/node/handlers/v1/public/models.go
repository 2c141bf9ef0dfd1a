package public

import (
	"github.com/ledgerd/powchain/business/sys/validate"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
)

// newTx is the payload for the node to create and sign a transfer.
type newTx struct {
	Recipient database.AccountID `json:"recipient" validate:"required,account"`
	Amount    uint64             `json:"amount" validate:"gt=0"`
}

// Validate checks the data in the model is considered clean.
func (ntx newTx) Validate() error {
	return validate.Check(ntx)
}

type chain struct {
	Chain   []database.Block `json:"chain"`
	Length  int              `json:"length"`
	IsValid bool             `json:"isValid"`
}

type mined struct {
	Message string `json:"message"`
	Hash    string `json:"hash"`
	Block   block  `json:"block"`
}

type info struct {
	Account  database.AccountID `json:"account"`
	Name     string             `json:"name"`
	Balance  int64              `json:"balance"`
	Received uint64             `json:"received"`
	Sent     uint64             `json:"sent"`
	Mined    uint64             `json:"mined"`
	Trans    uint64             `json:"trans"`
}

type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}

type block struct {
	Number       uint64        `json:"number"`
	Hash         string        `json:"hash"`
	PreviousHash string        `json:"previous_hash,omitempty"`
	Timestamp    int64         `json:"timestamp"`
	Nonce        uint64        `json:"nonce"`
	Difficulty   uint          `json:"difficulty"`
	Transactions []database.Tx `json:"transactions"`
}

func toBlock(number uint64, blk database.Block) block {
	trans := blk.Transactions
	if trans == nil {
		trans = []database.Tx{}
	}

	return block{
		Number:       number,
		Hash:         blk.Hash(),
		PreviousHash: blk.PreviousHash,
		Timestamp:    blk.Timestamp,
		Nonce:        blk.Nonce,
		Difficulty:   blk.Difficulty,
		Transactions: trans,
	}
}
