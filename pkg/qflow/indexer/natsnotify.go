package indexer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/qflowdev/qflow/internal/log"
)

// eventKind tags a published notifyEvent.
type eventKind string

const (
	eventAdd       eventKind = "add"
	eventRemove    eventKind = "remove"
	eventKeyUpdate eventKind = "key"
)

// notifyEvent is the wire payload published on a path id's subject; an
// external indexer implementation publishes these, and the engine's
// Notifier subscriber translates them into addMatches/removeMatches
// calls on registered query-calc nodes (spec.md §1 "remoting ... out of
// scope" but the *consumer* side of the notification interface, per
// §6, is in scope).
type notifyEvent struct {
	Kind eventKind `json:"kind"`
	IDs  []int64   `json:"ids"`
}

// subjectForPath is the NATS subject an indexer publishes path pathID's
// events to.
func subjectForPath(pathID int) string {
	return fmt.Sprintf("qflow.path.%d", pathID)
}

// Notifier bridges NATS path-id subjects to Memory's subscriber
// notification methods, so an external indexer process can drive this
// in-process Memory (or any Memory-shaped target) over the wire instead
// of via direct Go calls.
type Notifier struct {
	conn   *nats.Conn
	target *Memory
	subs   []*nats.Subscription
}

// NewNotifier connects to url (an embedded in-process server's
// ClientURL(), or a real multi-process NATS deployment) and returns a
// Notifier ready to Publish/Subscribe against target.
func NewNotifier(url string, target *Memory) (*Notifier, error) {
	conn, err := nats.Connect(url, nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("indexer: connect to nats at %s: %w", url, err)
	}
	return &Notifier{conn: conn, target: target}, nil
}

// Publish sends an add/remove/key-update event for pathID. An external
// indexer implementation calls this instead of driving target's Go API
// directly, letting indexer and engine run as separate processes.
func (n *Notifier) Publish(pathID int, kind eventKind, ids []int64) error {
	payload, err := json.Marshal(notifyEvent{Kind: kind, IDs: ids})
	if err != nil {
		return err
	}
	return n.conn.Publish(subjectForPath(pathID), payload)
}

// PublishAdd/PublishRemove/PublishKeyUpdate are the typed entry points
// an external indexer uses.
func (n *Notifier) PublishAdd(pathID int, ids []int64) error    { return n.Publish(pathID, eventAdd, ids) }
func (n *Notifier) PublishRemove(pathID int, ids []int64) error { return n.Publish(pathID, eventRemove, ids) }
func (n *Notifier) PublishKeyUpdate(pathID int, ids []int64) error {
	return n.Publish(pathID, eventKeyUpdate, ids)
}

// KeyUpdateHandler is invoked when a key-update event arrives for a
// subscribed path, e.g. to drive identity.Monitor.OnKeyChange.
type KeyUpdateHandler func(pathID int, ids []int64)

// Subscribe starts translating NATS events for pathID into calls on
// target: add/remove events register or drop the remote ids through
// applyRemoteAdd/applyRemoteRemove, without allocating local ids (the
// Memory then fans the change out to registered query-calc nodes), and
// key-update events are handed to onKeyUpdate.
func (n *Notifier) Subscribe(pathID int, onKeyUpdate KeyUpdateHandler) error {
	sub, err := n.conn.Subscribe(subjectForPath(pathID), func(msg *nats.Msg) {
		var ev notifyEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.PrintfStdErr("indexer: malformed notify event on %s: %v\n", msg.Subject, err)
			return
		}
		switch ev.Kind {
		case eventAdd:
			n.target.applyRemoteAdd(pathID, ev.IDs)
		case eventRemove:
			n.target.applyRemoteRemove(pathID, ev.IDs)
		case eventKeyUpdate:
			if onKeyUpdate != nil {
				onKeyUpdate(pathID, ev.IDs)
			}
		}
	})
	if err != nil {
		return err
	}
	n.subs = append(n.subs, sub)
	return nil
}

// Close unsubscribes everything and closes the underlying connection.
func (n *Notifier) Close() {
	for _, sub := range n.subs {
		_ = sub.Unsubscribe()
	}
	n.conn.Close()
}

// EmbeddedServer starts an in-process nats-server for single-node or
// test deployments, mirroring the teacher's own vendoring of a full
// nats-server for embedded-messaging tests (SPEC_FULL §5.3). Real NATS
// URLs are equally supported by NewNotifier for multi-process
// deployments; this is purely a zero-dependency convenience.
type EmbeddedServer struct {
	srv *server.Server
}

// StartEmbeddedServer boots an in-process NATS server listening only on
// loopback, returning once it is ready for client connections.
func StartEmbeddedServer() (*EmbeddedServer, error) {
	opts := &server.Options{
		Host:   "127.0.0.1",
		Port:   -1, // random available port
		NoLog:  true,
		NoSigs: true,
	}
	srv, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("indexer: start embedded nats-server: %w", err)
	}
	srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("indexer: embedded nats-server did not become ready")
	}
	return &EmbeddedServer{srv: srv}, nil
}

// ClientURL returns the URL a Notifier should connect to.
func (e *EmbeddedServer) ClientURL() string { return e.srv.ClientURL() }

// Shutdown stops the embedded server.
func (e *EmbeddedServer) Shutdown() { e.srv.Shutdown() }
