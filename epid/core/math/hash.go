/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package math

import (
	"crypto/sha256"
	"crypto/sha512"
	"strings"

	"github.com/pkg/errors"
)

// HashAlg selects the hash used by HashToZr. Values follow the EPID SDK enumeration.
type HashAlg int

const (
	SHA256 HashAlg = iota
	SHA384
	SHA512
)

// DefaultHashAlg is the member default.
const DefaultHashAlg = SHA512

// Supported returns true for SHA-256, SHA-384 and SHA-512.
func (h HashAlg) Supported() bool {
	return h == SHA256 || h == SHA384 || h == SHA512
}

func (h HashAlg) String() string {
	switch h {
	case SHA256:
		return "SHA-256"
	case SHA384:
		return "SHA-384"
	case SHA512:
		return "SHA-512"
	default:
		return "unknown"
	}
}

// ParseHashAlg accepts SHA-256/SHA256/sha256 and the like.
func ParseHashAlg(s string) (HashAlg, error) {
	switch strings.ReplaceAll(strings.ToUpper(s), "-", "") {
	case "SHA256":
		return SHA256, nil
	case "SHA384":
		return SHA384, nil
	case "SHA512":
		return SHA512, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedAlgorithm, "[%s]", s)
}

func digest(data []byte, h HashAlg) ([]byte, error) {
	switch h {
	case SHA256:
		d := sha256.Sum256(data)
		return d[:], nil
	case SHA384:
		d := sha512.Sum384(data)
		return d[:], nil
	case SHA512:
		d := sha512.Sum512(data)
		return d[:], nil
	}
	return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "hash selector [%d]", int(h))
}
