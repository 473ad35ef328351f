// Package isa holds the constants shared by the public configuration surface
// and the internal assembler packages: the target byte order and the feature
// flags gating instruction-set revisions.
package isa

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Endianness selects the byte order instruction words are stored in.
//
// MIPS cores run either way; the traditional default is big-endian, so that is
// the zero value.
type Endianness byte

const (
	BigEndian Endianness = iota
	LittleEndian
)

// String implements fmt.Stringer.
func (e Endianness) String() string {
	switch e {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	}
	return fmt.Sprintf("unknown(%d)", e)
}

// ByteOrder returns the encoding/binary order corresponding to e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Arch names understood by EndianOf. These match the GOARCH spellings.
const (
	ArchMIPS64   = "mips64"
	ArchMIPS64LE = "mips64le"
)

// EndianOf maps an arch name to its byte order.
func EndianOf(arch string) (Endianness, error) {
	switch arch {
	case ArchMIPS64:
		return BigEndian, nil
	case ArchMIPS64LE:
		return LittleEndian, nil
	}
	return 0, fmt.Errorf("unsupported arch %q", arch)
}

// Features is a bit flag of enabled instruction-set features.
type Features uint64

const (
	// FeatureMIPS64R2 enables the Release 2 additions: the rotate group
	// (rotr, rotrv, drotr, drotr32, drotrv), bit-field extract/insert
	// (dext, dins) and the swap/sign-extend group (seb, seh, dsbh, dshd).
	FeatureMIPS64R2 Features = 1 << iota
)

// FeaturesMIPS64R1 is the base revision: none of the optional flags.
const FeaturesMIPS64R1 = Features(0)

// FeaturesMIPS64R2 is the Release 2 revision.
const FeaturesMIPS64R2 = FeaturesMIPS64R1 | FeatureMIPS64R2

// Set assigns the value for the given feature.
func (f Features) Set(feature Features, val bool) Features {
	if val {
		return f | feature
	}
	return f &^ feature
}

// Get returns the value of the given feature.
func (f Features) Get(feature Features) bool {
	return f&feature != 0
}

// Require returns an error if the given feature is not enabled.
func (f Features) Require(feature Features) error {
	if f&feature == 0 {
		return fmt.Errorf("feature %q is disabled", featureName(feature))
	}
	return nil
}

// String implements fmt.Stringer.
func (f Features) String() string {
	var builder strings.Builder
	for i := 0; i <= 63; i++ {
		target := Features(1 << i)
		if f.Get(target) {
			if name := featureName(target); name != "" {
				if builder.Len() > 0 {
					builder.WriteByte('|')
				}
				builder.WriteString(name)
			}
		}
	}
	return builder.String()
}

func featureName(f Features) string {
	switch f {
	case FeatureMIPS64R2:
		return "mips64r2"
	}
	return ""
}
