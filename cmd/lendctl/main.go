// Command lendctl drives the lending gateway from a terminal: it streams
// agent runs, browses application files and follows server-side sessions.
package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/auth"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/gatewayclient"
)

const tokenEnv = "LENDING_TOKEN"

var (
	gatewayURL   string
	token        string
	endpointName string
	timeout      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "lendctl",
	Short: "Client for the Intelligent Lending gateway",
	Long: `lendctl submits mortgage applications to the multi-agent pipeline
through the lending gateway, prints each agent's transcript as it streams,
and browses the input and output application files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "http://localhost:8080", "Gateway base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (default: $"+tokenEnv+")")
	rootCmd.PersistentFlags().StringVar(&endpointName, "endpoint", "DEFAULT", "Agent endpoint qualifier")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for non-streaming calls")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func tokenSource() auth.TokenSource {
	if token != "" {
		return auth.StaticToken(token)
	}
	return auth.EnvToken(tokenEnv)
}

func newClient() *gatewayclient.Client {
	return gatewayclient.New(gatewayURL, tokenSource(), timeout)
}

// wsURL maps the gateway base URL onto its WebSocket endpoint.
func wsURL() string {
	u := strings.TrimSuffix(gatewayURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
