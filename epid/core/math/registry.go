/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package math

import (
	"sync"

	math "github.com/IBM/mathlib"
)

var engines sync.Map // math.CurveID -> *Engine

// EngineFor returns the shared engine of a curve. Engines are immutable and
// safe for concurrent use.
func EngineFor(id math.CurveID) (*Engine, error) {
	if e, ok := engines.Load(id); ok {
		return e.(*Engine), nil
	}
	e, err := NewEngine(id)
	if err != nil {
		return nil, err
	}
	actual, _ := engines.LoadOrStore(id, e)
	return actual.(*Engine), nil
}
