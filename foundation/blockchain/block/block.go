// Package block maintains the block and transaction types for the blockchain
// along with the hashing and proof of work support.
package block

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// ZeroHash represents a hash value of all zeroes. It is the previous hash
// of the genesis block.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Tx represents a transfer of funds between two addresses. There is no
// signature, the sender is an unverified label. Two transactions with the
// same field values are considered the same transaction.
type Tx struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// =============================================================================

// Block represents a group of transactions mined into the chain. Once a block
// is appended to the chain it is never mutated again.
type Block struct {
	Index        uint64 `json:"index"`
	PrevHash     string `json:"prev_hash"`
	Timestamp    int64  `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
}

// New constructs a block that links to the specified previous hash. The hash
// is computed over the initial nonce, mining will move it.
func New(index uint64, prevHash string, txs []Tx) Block {
	b := Block{
		Index:        index,
		PrevHash:     prevHash,
		Timestamp:    time.Now().UTC().Unix(),
		Transactions: txs,
	}
	b.Hash = b.ComputeHash()

	return b
}

// Genesis constructs the fixed first block of a chain. The genesis block is
// exempt from the proof of work requirement.
func Genesis() Block {
	b := Block{
		Index:        0,
		PrevHash:     ZeroHash,
		Timestamp:    time.Now().UTC().Unix(),
		Transactions: []Tx{},
	}
	b.Hash = b.ComputeHash()

	return b
}

// hashData is the canonical encoding of a block for hashing. Field order is
// fixed and keys are sorted, so identical field values produce an identical
// digest on every node. The declared hash field is never part of the digest.
type hashData struct {
	Index        uint64 `json:"index"`
	Nonce        uint64 `json:"nonce"`
	PrevHash     string `json:"prev_hash"`
	Timestamp    int64  `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
}

// ComputeHash returns the SHA-256 digest of the canonical encoding of the
// five hashable block fields as a hex string.
func (b Block) ComputeHash() string {
	data, err := json.Marshal(hashData{
		Index:        b.Index,
		Nonce:        b.Nonce,
		PrevHash:     b.PrevHash,
		Timestamp:    b.Timestamp,
		Transactions: b.Transactions,
	})
	if err != nil {

		// Marshalling a value of these field types can't fail. If it ever
		// does, the block must not look mineable.
		return ""
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// Mine performs the brute force nonce search until the block hash meets the
// difficulty requirement. The search starts from the block's current nonce
// and is unbounded, the context is the only way to abandon it. The context
// is checked on every attempt.
func (b *Block) Mine(ctx context.Context, difficulty int) error {
	b.Hash = b.ComputeHash()

	for !isHashSolved(difficulty, b.Hash) {
		if err := ctx.Err(); err != nil {
			return err
		}

		b.Nonce++
		b.Hash = b.ComputeHash()
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's.
func isHashSolved(difficulty int, hash string) bool {
	const match = "00000000000000000"

	if len(hash) != 64 || difficulty > len(match) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}
