package isa

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEndianness(t *testing.T) {
	require.Equal(t, "big", BigEndian.String())
	require.Equal(t, "little", LittleEndian.String())
	require.Equal(t, binary.BigEndian, BigEndian.ByteOrder())
	require.Equal(t, binary.LittleEndian, LittleEndian.ByteOrder())

	// The zero value is the traditional MIPS default.
	var e Endianness
	require.Equal(t, BigEndian, e)
}

func TestEndianOf(t *testing.T) {
	e, err := EndianOf(ArchMIPS64)
	require.NoError(t, err)
	require.Equal(t, BigEndian, e)

	e, err = EndianOf(ArchMIPS64LE)
	require.NoError(t, err)
	require.Equal(t, LittleEndian, e)

	_, err = EndianOf("mips")
	require.EqualError(t, err, `unsupported arch "mips"`)
}

func TestFeatures_SetGet(t *testing.T) {
	f := FeaturesMIPS64R1
	require.False(t, f.Get(FeatureMIPS64R2))

	f = f.Set(FeatureMIPS64R2, true)
	require.True(t, f.Get(FeatureMIPS64R2))

	f = f.Set(FeatureMIPS64R2, false)
	require.False(t, f.Get(FeatureMIPS64R2))
}

func TestFeatures_Require(t *testing.T) {
	err := FeaturesMIPS64R1.Require(FeatureMIPS64R2)
	require.EqualError(t, err, `feature "mips64r2" is disabled`)

	require.NoError(t, FeatureMIPS64R2.Require(FeatureMIPS64R2))
}

func TestFeatures_String(t *testing.T) {
	require.Equal(t, "", FeaturesMIPS64R1.String())
	require.Equal(t, "mips64r2", FeatureMIPS64R2.String())
	// Unknown bits have no name and print nothing.
	require.Equal(t, "mips64r2", (FeatureMIPS64R2 | 1<<63).String())
}
