package stream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePayloadUnwrapsDoubleEncoding(t *testing.T) {
	inner := `{"type":"agent_chunk","agent":"LMI","data":"say \"hi\"","timestamp":"T"}`
	wrapped, err := json.Marshal(inner)
	require.NoError(t, err)

	assert.Equal(t, inner, NormalizePayload(string(wrapped)))
}

func TestNormalizePayloadLeavesOtherPayloads(t *testing.T) {
	for _, payload := range []string{
		`{"type":"agent_start"}`,
		`"`,
		`"unterminated \"`,
		`"bad \q escape"`,
		`plain text`,
	} {
		assert.Equal(t, payload, NormalizePayload(payload), payload)
	}
}
