package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
)

// The set of message types peers exchange. Messages propagate exactly one
// hop, a receiving node never re-forwards them.
const (
	MessageNewTx    = "NEW_TX"
	MessageNewBlock = "NEW_BLOCK"
)

// ErrDecode is returned for a malformed or unknown inbound message. The
// transport drops the connection with no reply.
var ErrDecode = errors.New("undecodable message")

// Message represents the envelope peers exchange. The framing is owned by
// the transport binding, the engine only consumes this shape.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewTxMessage constructs a NEW_TX envelope for the specified transaction.
func NewTxMessage(tx block.Tx) (Message, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return Message{}, err
	}

	return Message{Type: MessageNewTx, Data: data}, nil
}

// NewBlockMessage constructs a NEW_BLOCK envelope for the specified block.
func NewBlockMessage(b block.Block) (Message, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return Message{}, err
	}

	return Message{Type: MessageNewBlock, Data: data}, nil
}

// HandleMessage applies an inbound peer message to the node state. A
// rejected block or transaction comes back as an error for the transport
// to log, the protocol carries no replies.
func (s *State) HandleMessage(msg Message) error {
	switch msg.Type {
	case MessageNewTx:
		var tx block.Tx
		if err := json.Unmarshal(msg.Data, &tx); err != nil {
			return fmt.Errorf("%w: new tx: %v", ErrDecode, err)
		}
		return s.UpsertPeerTransaction(tx)

	case MessageNewBlock:
		var b block.Block
		if err := json.Unmarshal(msg.Data, &b); err != nil {
			return fmt.Errorf("%w: new block: %v", ErrDecode, err)
		}
		return s.ProcessPeerBlock(b)

	default:
		return fmt.Errorf("%w: unknown type %q", ErrDecode, msg.Type)
	}
}
