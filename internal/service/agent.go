package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

// InvokeAgent opens the runtime stream for a proxied invocation. The bearer
// token is optional here; the runtime decides whether it needs one.
func (s *Service) InvokeAgent(ctx context.Context, req domain.InvokeAgentRequest) (io.ReadCloser, error) {
	if isEmptyPayload(req.Payload) || req.SessionID == "" {
		return nil, invalid("Missing required parameters: payload, session_id")
	}
	endpoint := req.EndpointName
	if endpoint == "" {
		endpoint = domain.DefaultEndpointName
	}

	body, err := s.runtime.Invoke(ctx, stream.StartParams{
		Payload:      req.Payload,
		SessionID:    req.SessionID,
		BearerToken:  req.BearerToken,
		EndpointName: endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke agent: %w", err)
	}
	return body, nil
}

// ForwardFrames copies every `data: ` line of body to dst as its own SSE
// frame, calling flush after each one. Other lines are dropped.
func ForwardFrames(dst io.Writer, flush func(), body io.Reader) error {
	var lines stream.LineBuffer
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		for _, line := range lines.Write(buf[:n]) {
			data, ok := strings.CutPrefix(line, "data: ")
			if !ok {
				continue
			}
			if _, werr := fmt.Fprintf(dst, "data: %s\n\n", data); werr != nil {
				return werr
			}
			if flush != nil {
				flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func isEmptyPayload(p []byte) bool {
	p = bytes.TrimSpace(p)
	return len(p) == 0 || bytes.Equal(p, []byte("null")) || bytes.Equal(p, []byte(`""`))
}
