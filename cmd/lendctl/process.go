package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

var processRemote bool

var processCmd = &cobra.Command{
	Use:   "process <key>",
	Short: "Assess an application file with the agent pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if processRemote {
			resp, err := newClient().ProcessFile(cmd.Context(), key, endpointName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started session %s (run %s)\n", resp.SessionID, resp.RunID)
			return watchSession(cmd.Context(), cmd.OutOrStdout(), resp.SessionID)
		}

		payload, err := json.Marshal(map[string]string{"prompt": domain.ProcessFilePrompt(key)})
		if err != nil {
			return err
		}
		return runStream(cmd.Context(), cmd.OutOrStdout(), payload, uuid.New().String())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().BoolVar(&processRemote, "remote", false, "Run the stream on the gateway and follow it over WebSocket")
}
