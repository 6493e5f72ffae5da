package lambda

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	input *awslambda.InvokeInput
	out   *awslambda.InvokeOutput
	err   error
}

func (f *fakeAPI) Invoke(_ context.Context, params *awslambda.InvokeInput, _ ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestClientInvoke(t *testing.T) {
	api := &fakeAPI{out: &awslambda.InvokeOutput{
		StatusCode:    200,
		Payload:       []byte(`{"statusCode":200,"body":"{}"}`),
		FunctionError: aws.String("Unhandled"),
	}}
	client := NewClientWithAPI(api)

	res, err := client.Invoke(context.Background(), "files-handler", []byte(`{"tool_name":"list_s3_files"}`))
	require.NoError(t, err)

	assert.Equal(t, "files-handler", aws.ToString(api.input.FunctionName))
	assert.Equal(t, types.InvocationTypeRequestResponse, api.input.InvocationType)
	assert.JSONEq(t, `{"tool_name":"list_s3_files"}`, string(api.input.Payload))
	assert.Equal(t, int32(200), res.StatusCode)
	assert.Equal(t, "Unhandled", res.FunctionError)
}

func TestClientInvokeError(t *testing.T) {
	client := NewClientWithAPI(&fakeAPI{err: errors.New("throttled")})
	_, err := client.Invoke(context.Background(), "f", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestFunctionName(t *testing.T) {
	assert.Equal(t, "homebuying-files", FunctionName("arn:aws:lambda:ap-south-1:123456789012:function:homebuying-files"))
	assert.Equal(t, "plain", FunctionName("plain"))
	assert.Equal(t, "", FunctionName("arn:aws:lambda:ap-south-1:123456789012:function:"))
}
