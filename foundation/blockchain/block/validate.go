package block

import (
	"errors"
	"fmt"
)

// The set of reasons a candidate block is rejected. A candidate must clear
// every check before it can be committed to the chain, whether it was mined
// locally or received from a peer.
var (
	ErrWrongIndex             = errors.New("block does not extend the current head")
	ErrWrongPrevHash          = errors.New("previous hash does not match the current head")
	ErrHashMismatch           = errors.New("declared hash does not match the block contents")
	ErrInsufficientDifficulty = errors.New("hash does not meet the difficulty requirement")
)

// ValidateNext validates a candidate to become the next block after the
// specified head. It returns the first reason that fails, wrapped with
// detail, or nil when the candidate can be committed.
func ValidateNext(candidate Block, head Block, difficulty int) error {
	nextIndex := head.Index + 1

	if candidate.Index != nextIndex {
		return fmt.Errorf("got block %d, expecting %d: %w", candidate.Index, nextIndex, ErrWrongIndex)
	}

	if candidate.PrevHash != head.Hash {
		return fmt.Errorf("got prev hash %s, expecting %s: %w", candidate.PrevHash, head.Hash, ErrWrongPrevHash)
	}

	if hash := candidate.ComputeHash(); hash != candidate.Hash {
		return fmt.Errorf("recomputed %s, declared %s: %w", hash, candidate.Hash, ErrHashMismatch)
	}

	if !isHashSolved(difficulty, candidate.Hash) {
		return fmt.Errorf("hash %s needs %d leading zeroes: %w", candidate.Hash, difficulty, ErrInsufficientDifficulty)
	}

	return nil
}
