/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cert

import "github.com/pkg/errors"

var (
	// ErrInvalidSignature is returned when a certificate signature does not verify.
	ErrInvalidSignature = errors.New("invalid certificate signature")
	// ErrUntrustedSigner is returned when a certificate is signed by an unexpected key.
	ErrUntrustedSigner = errors.New("untrusted certificate signer")
)
