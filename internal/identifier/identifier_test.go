package identifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-compare/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"105842360", EntityID},
		{" 42 ", EntityID},
		{"-7", EntityID},
		{"1_000", EntityID},
		{"１２３", EntityID},
		{"٤٢", EntityID},
		{"CA*S00222833", BvdID},
		{"USFEI1018186", BvdID},
		{"invalid_id!!", BvdID},
		{"123#456", BvdID},
		{"1&2", BvdID},
		{"*", BvdID},
		{"Müller", BvdID},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Classify(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "12-34", "!!", "1.5", "_-_", "_1", "1_", "1__0", "-", "+_1"} {
		t.Run(in, func(t *testing.T) {
			_, err := Classify(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidIdentifier))
		})
	}
}

func TestClassify_DigitsNeverBvd(t *testing.T) {
	assert.True(t, IsEntityID("00012"))
	assert.False(t, IsBvdID("00012"))
	got, err := Classify("00012")
	require.NoError(t, err)
	assert.Equal(t, EntityID, got)
}

func TestParseEntityID(t *testing.T) {
	id, err := ParseEntityID(" 105842360 ")
	require.NoError(t, err)
	assert.Equal(t, int64(105842360), id)

	id, err = ParseEntityID("1_000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), id)

	id, err = ParseEntityID("１２３")
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	for _, in := range []string{"0", "-3", "abc", "1__0", "99999999999999999999"} {
		_, err := ParseEntityID(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, model.ErrInvalidIdentifier), in)
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Split(" a, b ,,\nc\r\n"))
	assert.Empty(t, Split(" , ,"))
	assert.Empty(t, Split(""))
}
