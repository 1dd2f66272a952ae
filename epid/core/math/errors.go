/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package math

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned on a precondition violation by the caller
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRandomSource is returned when the random source cannot supply bytes
	ErrRandomSource = errors.New("random source failure")
	// ErrNotInvertible is returned when inverting the zero element
	ErrNotInvertible = errors.New("element is not invertible")
	// ErrDegenerateKey is returned when x + gamma is zero during issuance
	ErrDegenerateKey = errors.New("degenerate key: x + gamma is zero")
	// ErrUnsupportedAlgorithm is returned for an unrecognized hash selector
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
	// ErrMalformedEncoding is returned when decoding a non-canonical or out-of-range byte string
	ErrMalformedEncoding = errors.New("malformed encoding")
	// ErrInvalidProof is returned when a join request proof does not verify
	ErrInvalidProof = errors.New("invalid join request proof")
	// ErrInvalidCredential is returned when a credential does not satisfy the group relation
	ErrInvalidCredential = errors.New("invalid credential")
)
