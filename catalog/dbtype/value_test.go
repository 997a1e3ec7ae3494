package dbtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_NullCarriesTypeButNoPayload(t *testing.T) {
	n := NewNull(Integer())
	require.True(t, n.IsNull())
	require.Equal(t, Integer(), n.TypeID())
	require.Nil(t, n.AsInterface())
	require.Equal(t, "NULL", n.String())
}

func TestValue_NullSerializesToZeroBytesOfTheRightWidth(t *testing.T) {
	n := NewNull(Float64())
	require.Equal(t, 8, n.Size())
	buf := make([]byte, n.Size())
	n.Serialize(buf)
	require.Equal(t, make([]byte, 8), buf)
}

func TestValue_LessIsFalseWhenEitherSideIsNull(t *testing.T) {
	require.False(t, NewNull(Integer()).Less(NewInt(5)))
	require.False(t, NewInt(5).Less(NewNull(Integer())))
}

func TestValue_IntegerOrderingSurvivesRoundTripAcrossSign(t *testing.T) {
	buf := make([]byte, 4)
	NewInt(-5).Serialize(buf)
	got := Deserialize(Integer(), buf)
	require.Equal(t, int32(-5), got.AsInterface())
}
