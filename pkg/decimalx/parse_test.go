package decimalx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "integer", input: "15000000", want: 15000000},
		{name: "negative percent", input: "-22.300", want: -22.3},
		{name: "padded", input: " 0.00001234 ", want: 0.00001234},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "12a", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFloat("price", tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestFloatParser_KeepsFirstError(t *testing.T) {
	var p FloatParser
	a := p.Parse("a", "1.5")
	b := p.Parse("b", "oops")
	c := p.Parse("c", "2")

	assert.Equal(t, 1.5, a)
	assert.Zero(t, b)
	assert.Zero(t, c)
	require.Error(t, p.Err())
	assert.Contains(t, p.Err().Error(), "field b")
}
