/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package math

import (
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

// DefaultCurve is Fp256BN, the pairing-friendly curve of EPID 2.0.
const DefaultCurve = math.FP256BN_AMCL

var curveNames = map[math.CurveID]string{
	math.FP256BN_AMCL:        "FP256BN_AMCL",
	math.BN254:               "BN254",
	math.FP256BN_AMCL_MIRACL: "FP256BN_AMCL_MIRACL",
	math.BLS12_381:           "BLS12_381",
	math.BLS12_377_GURVY:     "BLS12_377_GURVY",
	math.BLS12_381_GURVY:     "BLS12_381_GURVY",
	math.BLS12_381_BBS:       "BLS12_381_BBS",
	math.BLS12_381_BBS_GURVY: "BLS12_381_BBS_GURVY",
}

// CurveIDToString returns the name of a registered curve.
func CurveIDToString(id math.CurveID) (string, error) {
	name, ok := curveNames[id]
	if !ok {
		return "", errors.Wrapf(ErrInvalidArgument, "unknown curve %d", id)
	}
	return name, nil
}

// StringToCurveID resolves a curve name.
func StringToCurveID(s string) (math.CurveID, error) {
	for id, name := range curveNames {
		if name == s {
			return id, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidArgument, "unknown curve %s", s)
}
