// Package peernet implements the socket transport binding for the peer
// message protocol. The server accepts TCP connections, each connection
// carries exactly one JSON envelope and is then closed. The client performs
// the one-shot sends used for broadcast.
package peernet

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/peer"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/state"
	"go.uber.org/zap"
)

// maxMessageSize bounds how much a handler reads from one connection.
const maxMessageSize = 10 << 20

// readTimeout bounds how long a handler waits for the single message.
const readTimeout = 5 * time.Second

// =============================================================================

// Server listens for inbound peer messages and applies them to the node
// state. Each connection is handled concurrently with all the others.
type Server struct {
	state    *state.State
	log      *zap.SugaredLogger
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer starts the accept loop on the specified host.
func NewServer(host string, st *state.State, log *zap.SugaredLogger) (*Server, error) {
	listener, err := net.Listen("tcp", host)
	if err != nil {
		return nil, err
	}

	srv := Server{
		state:    st,
		log:      log,
		listener: listener,
	}

	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		srv.accept()
	}()

	log.Infow("startup", "status", "peer socket listener started", "host", listener.Addr().String())

	return &srv, nil
}

// Addr returns the address the server is listening on.
func (srv *Server) Addr() string {
	return srv.listener.Addr().String()
}

// Shutdown stops the accept loop and waits for the in-flight handlers.
func (srv *Server) Shutdown() error {
	err := srv.listener.Close()
	srv.wg.Wait()

	return err
}

// accept runs the long-lived accept loop. Each accepted connection gets its
// own goroutine that reads one message, applies it, and terminates.
func (srv *Server) accept() {
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			srv.log.Infow("peernet", "status", "accept failed", "ERROR", err)
			continue
		}

		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.handle(conn)
		}()
	}
}

// handle reads one envelope from the connection and applies it. A malformed
// message drops the connection with no reply. A rejected block or
// transaction is logged and otherwise ignored, the protocol has no peer
// penalties.
func (srv *Server) handle(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	data, err := io.ReadAll(io.LimitReader(conn, maxMessageSize))
	if err != nil {
		srv.log.Infow("peernet", "status", "read failed", "remote", conn.RemoteAddr().String(), "ERROR", err)
		return
	}

	var msg state.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		srv.log.Infow("peernet", "status", "dropped undecodable message", "remote", conn.RemoteAddr().String(), "ERROR", err)
		return
	}

	if err := srv.state.HandleMessage(msg); err != nil {
		srv.log.Infow("peernet", "status", "message rejected", "type", msg.Type, "remote", conn.RemoteAddr().String(), "ERROR", err)
	}
}

// =============================================================================

// Client performs the one-shot peer sends. It implements the worker Sender
// interface. Each send dials, writes the envelope, and closes, there is no
// connection reuse.
type Client struct {
	timeout time.Duration
}

// NewClient constructs a client with the specified dial and write timeout.
func NewClient(timeout time.Duration) Client {
	return Client{timeout: timeout}
}

// SendTx delivers a NEW_TX envelope to the specified peer.
func (c Client) SendTx(pr peer.Peer, tx block.Tx) error {
	msg, err := state.NewTxMessage(tx)
	if err != nil {
		return err
	}

	return c.send(pr, msg)
}

// SendBlock delivers a NEW_BLOCK envelope to the specified peer.
func (c Client) SendBlock(pr peer.Peer, b block.Block) error {
	msg, err := state.NewBlockMessage(b)
	if err != nil {
		return err
	}

	return c.send(pr, msg)
}

// send performs one attempt against one peer.
func (c Client) send(pr peer.Peer, msg state.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", pr.Host, c.timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write(payload); err != nil {
		return err
	}

	return nil
}
