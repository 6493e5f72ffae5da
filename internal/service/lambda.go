package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/adapter/lambda"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/policy"
)

// InvokeFunction runs a tool on the file function and returns its raw
// result wrapped in a 200 envelope.
func (s *Service) InvokeFunction(ctx context.Context, req domain.InvokeLambdaRequest) (*domain.InvokeLambdaResponse, error) {
	if req.LambdaARN == "" || req.ToolName == "" || req.BearerToken == "" {
		return nil, invalid("Missing required parameters: lambda_arn, tool_name, bearer_token")
	}
	name := lambda.FunctionName(req.LambdaARN)
	if name == "" {
		return nil, invalid("Invalid Lambda ARN format")
	}
	if s.invoker == nil {
		return nil, ErrFunctionsUnavailable
	}

	if err := s.checkPolicy(ctx, req.ToolName, req.Arguments); err != nil {
		return nil, err
	}

	payload, err := functionPayload(req.ToolName, req.Arguments)
	if err != nil {
		return nil, err
	}

	if s.config != nil && s.config.LambdaTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.LambdaTimeout)
		defer cancel()
	}

	res, err := s.invoker.Invoke(ctx, name, payload)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 || res.FunctionError != "" {
		return nil, &FunctionStatusError{StatusCode: res.StatusCode, FunctionError: res.FunctionError}
	}

	body := json.RawMessage(res.Payload)
	if len(body) == 0 || !json.Valid(body) {
		return nil, fmt.Errorf("function %s returned an invalid payload", name)
	}
	return &domain.InvokeLambdaResponse{StatusCode: 200, Body: body}, nil
}

func (s *Service) checkPolicy(ctx context.Context, toolName string, args map[string]interface{}) error {
	if s.policyEngine == nil {
		return nil
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	decision, reason, err := s.policyEngine.Evaluate(ctx, map[string]interface{}{
		"tool_name": toolName,
		"arguments": args,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if decision != policy.DecisionAllow {
		log.Printf("WARN: tool call %s blocked: %s", toolName, reason)
		return fmt.Errorf("%w: %s", ErrPolicyDenied, toolName)
	}
	return nil
}

// functionPayload builds {tool_name, arguments, ...arguments}. Argument
// keys are spread at the top level, and tool_name and arguments always win
// so the function runs the tool the policy evaluated.
func functionPayload(toolName string, args map[string]interface{}) ([]byte, error) {
	out := make(map[string]interface{}, len(args)+2)
	for k, v := range args {
		out[k] = v
	}
	out["tool_name"] = toolName
	out["arguments"] = args
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode function payload: %w", err)
	}
	return b, nil
}
