package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

const listMaxKeys = 100

// ListFiles lists the files under prefix ("input" or "output").
func (s *Service) ListFiles(ctx context.Context, token, prefix string) ([]domain.FileDescriptor, error) {
	if prefix != domain.PrefixInput && prefix != domain.PrefixOutput {
		return nil, invalid("unknown file prefix: %s", prefix)
	}
	res, err := s.callFiles(ctx, token, domain.ToolListFiles, map[string]interface{}{
		"prefix":   prefix,
		"max_keys": listMaxKeys,
	})
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileDescriptor, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, f.Descriptor())
	}
	return files, nil
}

// ReadFile returns the content of one file. Empty content is valid.
func (s *Service) ReadFile(ctx context.Context, token, key string) (string, error) {
	if key == "" {
		return "", invalid("key is required")
	}
	res, err := s.callFiles(ctx, token, domain.ToolReadFile, map[string]interface{}{
		"file_path": key,
	})
	if err != nil {
		return "", err
	}
	if res.Content == nil {
		return "", nil
	}
	return *res.Content, nil
}

// ProcessFile starts a server-side stream asking the coordinator to assess
// the file, under a fresh session id.
func (s *Service) ProcessFile(ctx context.Context, token string, req domain.ProcessFileRequest) (*domain.StartStreamResponse, error) {
	if req.Key == "" {
		return nil, invalid("key is required")
	}
	payload, err := json.Marshal(map[string]string{"prompt": domain.ProcessFilePrompt(req.Key)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompt: %w", err)
	}
	return s.StartStream(ctx, token, domain.StartStreamRequest{
		Payload:      payload,
		SessionID:    uuid.New().String(),
		EndpointName: req.EndpointName,
	})
}

func (s *Service) callFiles(ctx context.Context, token, tool string, args map[string]interface{}) (*domain.FunctionResult, error) {
	if s.config == nil || s.config.FilesLambdaARN == "" {
		return nil, ErrFunctionsUnavailable
	}
	resp, err := s.InvokeFunction(ctx, domain.InvokeLambdaRequest{
		LambdaARN:   s.config.FilesLambdaARN,
		ToolName:    tool,
		Arguments:   args,
		BearerToken: token,
	})
	if err != nil {
		return nil, err
	}
	return DecodeFunctionResult(resp.Body)
}

// DecodeFunctionResult unwraps the function envelope, whose body is a JSON
// document that may itself be encoded as a string. A non-200 envelope or a
// result that reports failure becomes a RemoteError.
func DecodeFunctionResult(raw json.RawMessage) (*domain.FunctionResult, error) {
	var env domain.FunctionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode function envelope: %w", err)
	}
	if len(env.Body) == 0 || string(env.Body) == "null" {
		return nil, &RemoteError{Message: fmt.Sprintf("empty function response (status %d)", env.StatusCode)}
	}

	body := stream.NormalizePayload(string(env.Body))
	var res domain.FunctionResult
	decodeErr := json.Unmarshal([]byte(body), &res)
	if env.StatusCode != http.StatusOK {
		msg := res.Error
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("function returned status %d", env.StatusCode)
		}
		return nil, &RemoteError{Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode function result: %w", decodeErr)
	}
	if !res.Success {
		return nil, &RemoteError{Message: res.Error}
	}
	return &res, nil
}
