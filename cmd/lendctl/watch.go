package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/ws"
)

var watchCmd = &cobra.Command{
	Use:   "watch <session_id>",
	Short: "Follow a gateway stream session until its run ends",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchSession(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// Watcher is a WebSocket client following one stream session.
type Watcher struct {
	conn *websocket.Conn
	out  io.Writer
	done *ws.DoneMessage
}

// Dial connects to the gateway's WebSocket endpoint.
func Dial(ctx context.Context, addr string, out io.Writer) (*Watcher, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Watcher{conn: conn, out: out}, nil
}

func (w *Watcher) Close() error {
	return w.conn.Close()
}

// Subscribe asks for the session's events and waits for the ack. It returns
// the session snapshot, which is nil if the session has never run.
func (w *Watcher) Subscribe(sessionID string) (*domain.StreamSnapshot, error) {
	msg := ws.SubscribeMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeSubscribe,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
	}
	if err := w.conn.WriteJSON(msg); err != nil {
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read subscribed: %w", err)
		}

		var base ws.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			return nil, fmt.Errorf("unmarshal subscribed: %w", err)
		}
		switch base.Type {
		case ws.TypeSubscribed:
			var ack ws.SubscribedMessage
			if err := json.Unmarshal(data, &ack); err != nil {
				return nil, fmt.Errorf("unmarshal subscribed: %w", err)
			}
			return ack.Snapshot, nil
		case ws.TypeEvent:
			// Events can overtake the ack.
			w.printEventMessage(data)
		case ws.TypeDone:
			var done ws.DoneMessage
			if err := json.Unmarshal(data, &done); err != nil {
				return nil, fmt.Errorf("unmarshal done: %w", err)
			}
			w.done = &done
		case ws.TypeError:
			var errMsg ws.ErrorMessage
			json.Unmarshal(data, &errMsg)
			return nil, fmt.Errorf("subscribe failed: %s - %s", errMsg.Code, errMsg.Message)
		default:
			return nil, fmt.Errorf("expected subscribed, got: %s", base.Type)
		}
	}
}

func (w *Watcher) printEventMessage(data []byte) {
	var msg ws.EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WARN: unmarshal event: %v", err)
		return
	}
	ev, err := stream.Decode(msg.Event)
	if err != nil {
		log.Printf("WARN: decode event %d: %v", msg.Seq, err)
		return
	}
	printEvent(w.out, ev)
}

// Follow prints events until a done message arrives and returns the run's
// final state.
func (w *Watcher) Follow() (*ws.DoneMessage, error) {
	if w.done != nil {
		return w.done, nil
	}
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		var base ws.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			log.Printf("WARN: unmarshal message: %v", err)
			continue
		}

		switch base.Type {
		case ws.TypeEvent:
			w.printEventMessage(data)
		case ws.TypeDone:
			var msg ws.DoneMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				return nil, fmt.Errorf("unmarshal done: %w", err)
			}
			w.done = &msg
			return &msg, nil
		case ws.TypeError:
			var msg ws.ErrorMessage
			json.Unmarshal(data, &msg)
			fmt.Fprintf(w.out, "\n[%s] %s\n", msg.Code, msg.Message)
		}
	}
}

func watchSession(ctx context.Context, out io.Writer, sessionID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := Dial(ctx, wsURL(), out)
	if err != nil {
		return err
	}
	defer w.Close()

	// Unblock the reader on cancellation.
	stop := context.AfterFunc(ctx, func() { w.Close() })
	defer stop()

	snapshot, err := w.Subscribe(sessionID)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return fmt.Errorf("session %s has no runs", sessionID)
	}
	if snapshot.Status.Terminal() {
		printAggregate(out, snapshot.Agents)
		return runResult(snapshot.Status, snapshot.Error)
	}

	fmt.Fprintf(out, "Following session %s (run %s)\n", sessionID, snapshot.RunID)
	done, err := w.Follow()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	printAggregate(out, done.Agents)
	return runResult(done.Status, done.Error)
}

func runResult(status domain.StreamStatus, msg string) error {
	if status != domain.StreamStatusFailed {
		return nil
	}
	if msg == "" {
		msg = "stream failed"
	}
	return errors.New(msg)
}
