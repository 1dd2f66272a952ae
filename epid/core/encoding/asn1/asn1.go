/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package asn1

import (
	"encoding/asn1"

	math "github.com/IBM/mathlib"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/pkg/errors"
)

// Envelope binds a list of canonical element encodings to the curve they belong to.
type Envelope struct {
	CurveID int
	Values  [][]byte
}

// Encoder accumulates canonical element encodings produced by an engine.
type Encoder struct {
	e *emath.Engine
	v Envelope
}

func NewEncoder(e *emath.Engine) *Encoder {
	return &Encoder{e: e, v: Envelope{CurveID: int(e.CurveID())}}
}

func (enc *Encoder) AddBytes(b []byte) *Encoder {
	enc.v.Values = append(enc.v.Values, b)
	return enc
}

func (enc *Encoder) AddZr(z *math.Zr) *Encoder {
	return enc.AddBytes(enc.e.EncodeZr(z))
}

func (enc *Encoder) AddG1(g *math.G1) *Encoder {
	return enc.AddBytes(enc.e.EncodeG1(g))
}

func (enc *Encoder) AddG2(g *math.G2) *Encoder {
	return enc.AddBytes(enc.e.EncodeG2(g))
}

func (enc *Encoder) Bytes() ([]byte, error) {
	raw, err := asn1.Marshal(enc.v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal envelope")
	}
	return raw, nil
}

// PeekCurve returns the curve an envelope was produced for.
func PeekCurve(raw []byte) (math.CurveID, error) {
	v, err := parseEnvelope(raw)
	if err != nil {
		return 0, err
	}
	return math.CurveID(v.CurveID), nil
}

// Decoder reads back the values of an envelope, in order.
type Decoder struct {
	e     *emath.Engine
	v     *Envelope
	index int
}

// NewDecoder parses raw and checks it was produced for the engine curve.
func NewDecoder(e *emath.Engine, raw []byte) (*Decoder, error) {
	v, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if math.CurveID(v.CurveID) != e.CurveID() {
		return nil, errors.Wrapf(emath.ErrMalformedEncoding, "curve mismatch, expected [%d], got [%d]", e.CurveID(), v.CurveID)
	}
	return &Decoder{e: e, v: v}, nil
}

func (d *Decoder) NextBytes() ([]byte, error) {
	if d.index >= len(d.v.Values) {
		return nil, errors.Wrap(emath.ErrMalformedEncoding, "not enough values")
	}
	b := d.v.Values[d.index]
	d.index++
	return b, nil
}

func (d *Decoder) NextZr() (*math.Zr, error) {
	b, err := d.NextBytes()
	if err != nil {
		return nil, err
	}
	return d.e.DecodeZr(b)
}

func (d *Decoder) NextG1() (*math.G1, error) {
	b, err := d.NextBytes()
	if err != nil {
		return nil, err
	}
	return d.e.DecodeG1(b)
}

func (d *Decoder) NextG2() (*math.G2, error) {
	b, err := d.NextBytes()
	if err != nil {
		return nil, err
	}
	return d.e.DecodeG2(b)
}

// Done fails if values are left unread.
func (d *Decoder) Done() error {
	if d.index != len(d.v.Values) {
		return errors.Wrapf(emath.ErrMalformedEncoding, "%d trailing values", len(d.v.Values)-d.index)
	}
	return nil
}

func parseEnvelope(raw []byte) (*Envelope, error) {
	v := &Envelope{}
	rest, err := asn1.Unmarshal(raw, v)
	if err != nil {
		return nil, errors.Wrapf(emath.ErrMalformedEncoding, "failed to unmarshal envelope: %s", err)
	}
	if len(rest) != 0 {
		return nil, errors.Wrap(emath.ErrMalformedEncoding, "envelope should not have trailing bytes")
	}
	return v, nil
}
