package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalOutput(t *testing.T) {
	require := require.New(t)

	raw := json.RawMessage(`{"count":3,"owner":"alice"}`)

	out, err := MarshalOutput(FormatJSON, raw)
	require.NoError(err)
	require.EqualValues("{\n  \"count\": 3,\n  \"owner\": \"alice\"\n}", string(out))

	out, err = MarshalOutput(FormatYAML, raw)
	require.NoError(err)
	require.EqualValues("count: 3\nowner: alice\n", string(out))

	_, err = MarshalOutput("xml", raw)
	require.Error(err)

	_, err = MarshalOutput(FormatJSON, json.RawMessage(`{`))
	require.Error(err)
}
