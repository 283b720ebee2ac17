package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertAllStubsCalled fails the test if any scripted stub was never hit.
func AssertAllStubsCalled(t *testing.T, mt *MockTransport) {
	t.Helper()
	for _, desc := range mt.Unused() {
		assert.Fail(t, "stub never called", desc)
	}
}

// AssertJSONBody deep-compares two JSON documents after normalising both
// through unmarshal, so key order and whitespace never matter.
func AssertJSONBody(t *testing.T, expected, actual []byte) {
	t.Helper()

	var expVal, actVal interface{}
	require.NoError(t, json.Unmarshal(expected, &expVal), "expected document is not valid JSON")
	require.NoError(t, json.Unmarshal(actual, &actVal), "actual document is not valid JSON\nbody: %s", string(actual))

	assert.Equal(t, expVal, actVal, "JSON body mismatch")
}

// RequestJSON unmarshals a recorded call's body into dest.
func RequestJSON(t *testing.T, c Call, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(c.Body, dest), "recorded request body is not valid JSON: %s", string(c.Body))
}
