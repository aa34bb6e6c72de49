package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisJSON_KeepsZeroOffset(t *testing.T) {
	a := Axis{Name: "X", Units: "µm", Navigate: true, Kind: AxisUniform, Offset: 0, Scale: 0.5, Size: 3}

	raw, err := json.Marshal(a)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "offset")
	assert.Contains(t, fields, "scale")
	assert.Equal(t, 0.0, fields["offset"])
	assert.NotContains(t, fields, "values")
}
