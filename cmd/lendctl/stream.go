package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

var (
	streamPayload   string
	streamSessionID string
	streamCarry     bool
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Invoke the agent pipeline and print its transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := json.RawMessage(streamPayload)
		if !json.Valid(payload) {
			// Plain text is sent as a JSON string.
			b, err := json.Marshal(streamPayload)
			if err != nil {
				return err
			}
			payload = b
		}
		return runStream(cmd.Context(), cmd.OutOrStdout(), payload, streamSessionID)
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().StringVar(&streamPayload, "payload", `{"prompt": "Hello"}`, "Request payload (JSON or text)")
	streamCmd.Flags().StringVar(&streamSessionID, "session-id", "", "Runtime session id (default: new uuid)")
	streamCmd.Flags().BoolVar(&streamCarry, "carry-partial", false, "Carry incomplete objects across frames")
}

// runStream runs one stream through the gateway's proxy, printing chunks
// as they arrive and each agent's transcript at the end.
func runStream(ctx context.Context, out io.Writer, payload json.RawMessage, sessionID string) error {
	client := newClient()
	tok, err := client.Token()
	if err != nil {
		return fmt.Errorf("unable to get authentication token: %w", err)
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	session := stream.NewSession(stream.Handlers{
		OnEvent: func(ev stream.Event) { printEvent(out, ev) },
	}, stream.Options{CarryPartial: streamCarry})

	fmt.Fprintf(out, "Session %s\n", sessionID)
	err = session.Start(ctx, stream.StartParams{
		Payload:      payload,
		SessionID:    sessionID,
		BearerToken:  tok,
		EndpointName: endpointName,
	}, client.OpenAgentStream)

	printAggregate(out, session.Aggregate().Snapshot())
	if err != nil {
		return fmt.Errorf("stream %s: %w", session.Status(), err)
	}
	return nil
}

func printEvent(out io.Writer, ev stream.Event) {
	switch e := ev.(type) {
	case stream.AgentStart:
		fmt.Fprint(out, stream.StartMarker(e.Timestamp, e.Agent))
	case stream.AgentChunk:
		fmt.Fprint(out, e.Data)
	case stream.AgentEnd:
		fmt.Fprint(out, stream.EndMarker(e.Timestamp, e.Agent))
	case stream.ErrorEvent:
		fmt.Fprintf(out, "\n[error] %s: %s\n", e.Agent, e.Data)
	}
}

func printAggregate(out io.Writer, agents map[domain.AgentID]string) {
	if len(agents) == 0 {
		return
	}
	fmt.Fprintln(out, "\n=== Agent transcripts ===")
	for _, agent := range domain.AllAgents {
		text, ok := agents[agent]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n%s\n", agent, text)
	}
}
