package types_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/lexamoris/synthia/x/genesis/types"
	"github.com/stretchr/testify/require"
)

func TestOperation_ValidateBasic(t *testing.T) {
	yes := true
	index := 0.6
	nan := math.NaN()
	tests := []struct {
		desc   string
		op     types.Operation
		errMsg string
	}{
		{
			desc: "complete operation",
			op:   types.NewOperation(true, true, 0.9),
		},
		{
			desc:   "missing requiresConsent",
			op:     types.Operation{ConsentGranted: &yes, TransparencyIndex: &index},
			errMsg: "requiresConsent is required",
		},
		{
			desc:   "missing consentGranted",
			op:     types.Operation{RequiresConsent: &yes, TransparencyIndex: &index},
			errMsg: "consentGranted is required",
		},
		{
			desc:   "missing transparencyIndex",
			op:     types.Operation{RequiresConsent: &yes, ConsentGranted: &yes},
			errMsg: "transparencyIndex is required",
		},
		{
			desc:   "NaN transparencyIndex",
			op:     types.Operation{RequiresConsent: &yes, ConsentGranted: &yes, TransparencyIndex: &nan},
			errMsg: "transparencyIndex must be finite",
		},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.op.ValidateBasic()
			if tc.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, types.ErrInvalidOperation)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestOperationFromJSON(t *testing.T) {
	var op types.Operation
	require.NoError(t, json.Unmarshal([]byte(`{"requiresConsent":false,"transparencyIndex":0.7}`), &op))
	require.ErrorIs(t, op.ValidateBasic(), types.ErrInvalidOperation)

	require.NoError(t, json.Unmarshal([]byte(`{"requiresConsent":true,"consentGranted":false,"transparencyIndex":0.7}`), &op))
	require.NoError(t, op.ValidateBasic())
	require.True(t, op.ConsentMissing())
}

func TestGzipRoundTrip(t *testing.T) {
	content := []byte(`{"version":"1.0.0"}`)
	a, err := types.GzipDeterministic(content, 9)
	require.NoError(t, err)
	b, err := types.GzipDeterministic(content, 9)
	require.NoError(t, err)
	require.Equal(t, a, b)

	out, err := types.GzipUnzip(a)
	require.NoError(t, err)
	require.Equal(t, content, out)
}
