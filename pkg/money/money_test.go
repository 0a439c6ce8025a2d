package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupedAmount(t *testing.T) {
	value, err := Parse("12,345.00")
	require.NoError(t, err)
	assert.Equal(t, 12345.00, value)
}

func TestParseLakhGrouping(t *testing.T) {
	value, err := Parse("12,34,567.50")
	require.NoError(t, err)
	assert.Equal(t, 1234567.50, value)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	_, err = Parse("12abc")
	require.Error(t, err)
}

func TestFormatGroupsThousands(t *testing.T) {
	assert.Equal(t, "12,345.00", Format(12345))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "999.99", Format(999.99))
	assert.Equal(t, "1,000.00", Format(1000))
	assert.Equal(t, "-2,500.75", Format(-2500.75))
}

func TestRoundTripPreservesValue(t *testing.T) {
	for _, v := range []float64{0, 1, 12345, 999999.99, 1234567.5} {
		parsed, err := Parse(Format(v))
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

func TestAmountMarshalsAsGroupedString(t *testing.T) {
	body, err := json.Marshal(Amount(12345))
	require.NoError(t, err)
	assert.Equal(t, `"12,345.00"`, string(body))

	body, err = json.Marshal(Amount(-2500.75))
	require.NoError(t, err)
	assert.Equal(t, `"-2,500.75"`, string(body))
}

func TestAmountUnmarshalAcceptsStringAndNumber(t *testing.T) {
	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"12,345.00"`), &a))
	assert.Equal(t, Amount(12345), a)

	require.NoError(t, json.Unmarshal([]byte(`99.5`), &a))
	assert.Equal(t, Amount(99.5), a)

	require.Error(t, json.Unmarshal([]byte(`"not money"`), &a))
}
