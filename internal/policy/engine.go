// Package policy decides whether a file-store tool call may be forwarded.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decision values produced by the file policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the given policy module.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.file_policy.decision"),
		rego.Module("file_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks a tool call.
// Input keys: tool_name, arguments.
// Returns the decision, an optional reason and an error.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionBlock, "no decision", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		if s == DecisionBlock {
			return s, "tool call not permitted", nil
		}
		return s, "", nil
	}

	return DecisionBlock, "unexpected return type", nil
}

// DefaultPolicy only lets the two document-store tools through, restricted
// to the input and output prefixes.
const DefaultPolicy = `
package file_policy

default decision = "block"

allowed_prefixes = {"input", "output"}

decision = "allow" {
	input.tool_name == "list_s3_files"
	allowed_prefixes[input.arguments.prefix]
}

decision = "allow" {
	input.tool_name == "read_s3_file"
	path := input.arguments.file_path
	is_string(path)
	path != ""
	not contains(path, "..")
}
`
