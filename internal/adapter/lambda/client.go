// Package lambda invokes the document-store function that lists and reads
// application files.
package lambda

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// Result is the outcome of a synchronous function invocation.
type Result struct {
	StatusCode    int32
	Payload       []byte
	FunctionError string
}

// Invoker calls a function synchronously.
type Invoker interface {
	Invoke(ctx context.Context, functionName string, payload []byte) (*Result, error)
}

// API is the subset of the Lambda SDK client used here.
type API interface {
	Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error)
}

// Ensure Client implements Invoker.
var _ Invoker = (*Client)(nil)

// Client invokes functions through the AWS SDK.
type Client struct {
	api API
}

// NewClient loads the default AWS configuration for region.
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &Client{api: awslambda.NewFromConfig(cfg)}, nil
}

// NewClientWithAPI wraps an existing SDK client.
func NewClientWithAPI(api API) *Client {
	return &Client{api: api}
}

// Invoke runs the function with a RequestResponse invocation.
func (c *Client) Invoke(ctx context.Context, functionName string, payload []byte) (*Result, error) {
	out, err := c.api.Invoke(ctx, &awslambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		Payload:        payload,
		InvocationType: types.InvocationTypeRequestResponse,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke function %s: %w", functionName, err)
	}
	return &Result{
		StatusCode:    out.StatusCode,
		Payload:       out.Payload,
		FunctionError: aws.ToString(out.FunctionError),
	}, nil
}

// FunctionName extracts the function name from a function ARN. A bare
// name is returned unchanged.
func FunctionName(arn string) string {
	arn = strings.TrimSpace(arn)
	if i := strings.LastIndex(arn, ":"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
