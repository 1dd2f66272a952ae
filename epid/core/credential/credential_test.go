/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package credential_test

import (
	"bytes"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/credential"
	"github.com/hyperledger-labs/epid-issuance/epid/core/issuer"
	"github.com/hyperledger-labs/epid-issuance/epid/core/join"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func seeded(b byte) *rng.Seeded {
	return rng.MustNewSeeded(bytes.Repeat([]byte{b}, rng.SeedSize))
}

var _ = Describe("Credential Issuance", func() {
	var (
		e     *emath.Engine
		pub   *keys.GroupPublicKey
		isk   *keys.IssuerPrivateKey
		nonce keys.Nonce
		f     *math.Zr
	)

	setup := func(id math.CurveID) {
		var err error
		e = emath.MustNewEngine(id)
		pub, isk, err = issuer.Setup(e, seeded(1))
		Expect(err).NotTo(HaveOccurred())
		nonce, err = issuer.NewNonce(seeded(2))
		Expect(err).NotTo(HaveOccurred())
		f, err = e.RandomZr(seeded(3), 1)
		Expect(err).NotTo(HaveOccurred())
	}

	for _, id := range []math.CurveID{math.FP256BN_AMCL, math.BN254, math.BLS12_381_BBS} {
		id := id
		name, _ := emath.CurveIDToString(id)

		Context("on curve "+name, func() {
			BeforeEach(func() { setup(id) })

			Describe("Issue", func() {
				It("satisfies A^(x+gamma) = g1·h1^f", func() {
					priv, err := credential.Issue(e, pub, isk, f, nil, seeded(4))
					Expect(err).NotTo(HaveOccurred())
					Expect(priv.GID).To(Equal(pub.GID))
					Expect(priv.F.Equals(f)).To(BeTrue())

					sum := e.Add(priv.X, isk.Gamma)
					gf := e.MulG1(e.G1Generator(), e.ExpG1(pub.H1, f))
					Expect(e.ExpG1(priv.A, sum).Equals(gf)).To(BeTrue())

					Expect(credential.Check(e, pub, isk, priv)).To(Succeed())
					Expect(credential.Verify(e, pub, priv)).To(Succeed())
				})

				It("uses the given x", func() {
					x := e.Curve.NewZrFromInt(7)
					priv, err := credential.Issue(e, pub, isk, f, x, nil)
					Expect(err).NotTo(HaveOccurred())
					Expect(priv.X.Equals(x)).To(BeTrue())
					Expect(credential.Verify(e, pub, priv)).To(Succeed())
				})
			})

			Describe("IssueFromJoinRequest", func() {
				It("issues a credential the member can complete", func() {
					req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
					Expect(err).NotTo(HaveOccurred())

					cred, err := credential.IssueFromJoinRequest(e, pub, isk, nonce, req, emath.SHA512, nil, seeded(5))
					Expect(err).NotTo(HaveOccurred())
					Expect(credential.VerifyCommitment(e, pub, cred, req.F)).To(Succeed())

					priv, err := credential.Complete(e, pub, cred, f)
					Expect(err).NotTo(HaveOccurred())
					Expect(credential.Check(e, pub, isk, priv)).To(Succeed())
				})

				It("rejects a request with an invalid proof", func() {
					req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA512)
					Expect(err).NotTo(HaveOccurred())
					req.S = e.Add(req.S, e.Curve.NewZrFromInt(1))

					cred, err := credential.IssueFromJoinRequest(e, pub, isk, nonce, req, emath.SHA512, nil, seeded(5))
					Expect(err).To(MatchError(emath.ErrInvalidProof))
					Expect(cred).To(BeNil())
				})
			})
		})
	}

	Describe("Edge cases", func() {
		BeforeEach(func() { setup(emath.DefaultCurve) })

		It("fails when x + gamma is zero", func() {
			x := e.Neg(isk.Gamma)
			priv, err := credential.Issue(e, pub, isk, f, x, nil)
			Expect(err).To(MatchError(emath.ErrDegenerateKey))
			Expect(priv).To(BeNil())
		})

		It("rejects out of range inputs", func() {
			_, err := credential.Issue(e, pub, isk, e.Curve.NewZrFromInt(0), nil, seeded(4))
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
			_, err = credential.Issue(e, pub, isk, f, e.Curve.NewZrFromInt(0), seeded(4))
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
			_, err = credential.Issue(nil, pub, isk, f, nil, seeded(4))
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
		})

		It("rejects an issuer key of another group", func() {
			_, isk2, err := issuer.Setup(e, seeded(8))
			Expect(err).NotTo(HaveOccurred())
			_, err = credential.Issue(e, pub, isk2, f, nil, seeded(4))
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
		})

		It("propagates random source failures", func() {
			_, err := credential.Issue(e, pub, isk, f, nil, rng.Exhausted{})
			Expect(err).To(MatchError(emath.ErrRandomSource))
		})

		It("detects a credential completed with the wrong secret", func() {
			req, err := join.CreateJoinRequest(e, pub, nonce, f, seeded(4), emath.SHA256)
			Expect(err).NotTo(HaveOccurred())
			cred, err := credential.IssueFromJoinRequest(e, pub, isk, nonce, req, emath.SHA256, nil, seeded(5))
			Expect(err).NotTo(HaveOccurred())

			other := e.Add(f, e.Curve.NewZrFromInt(1))
			priv, err := credential.Complete(e, pub, cred, other)
			Expect(err).To(MatchError(emath.ErrInvalidCredential))
			Expect(priv).To(BeNil())
		})

		It("detects a tampered credential", func() {
			priv, err := credential.Issue(e, pub, isk, f, nil, seeded(4))
			Expect(err).NotTo(HaveOccurred())
			priv.X = e.Add(priv.X, e.Curve.NewZrFromInt(1))
			Expect(credential.Check(e, pub, isk, priv)).To(MatchError(emath.ErrInvalidCredential))
			Expect(credential.Verify(e, pub, priv)).To(MatchError(emath.ErrInvalidCredential))
		})

		It("rejects a credential of another group", func() {
			priv, err := credential.Issue(e, pub, isk, f, nil, seeded(4))
			Expect(err).NotTo(HaveOccurred())
			pub2, _, err := issuer.Setup(e, seeded(8))
			Expect(err).NotTo(HaveOccurred())
			_, err = credential.Complete(e, pub2, priv.Credential(), f)
			Expect(err).To(MatchError(emath.ErrInvalidArgument))
		})
	})
})
