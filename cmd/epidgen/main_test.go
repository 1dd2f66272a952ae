/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os/exec"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gexec"
)

func TestCompile(t *testing.T) {
	gt := NewGomegaWithT(t)
	_, err := gexec.Build("github.com/hyperledger-labs/epid-issuance/cmd/epidgen")
	gt.Expect(err).NotTo(HaveOccurred())
	defer gexec.CleanupBuildArtifacts()
}

func TestPipeline(t *testing.T) {
	gt := NewGomegaWithT(t)
	epidgen, err := gexec.Build("github.com/hyperledger-labs/epid-issuance/cmd/epidgen")
	gt.Expect(err).NotTo(HaveOccurred())
	defer gexec.CleanupBuildArtifacts()

	dir := t.TempDir()
	memberDir := filepath.Join(dir, "member")
	run := func(args ...string) (string, error) {
		b, err := exec.Command(epidgen, args...).CombinedOutput()
		return string(b), err
	}

	out, err := run("setup", "-o", dir)
	gt.Expect(err).NotTo(HaveOccurred(), out)
	gt.Expect(out).To(ContainSubstring("created in"))

	out, err = run("setup", "-o", dir)
	gt.Expect(err).To(HaveOccurred())
	gt.Expect(out).To(ContainSubstring("exists. Specify another output folder with -o"))

	out, err = run("nonce", "-i", dir, "-o", dir)
	gt.Expect(err).NotTo(HaveOccurred(), out)

	out, err = run("join",
		"--cert", filepath.Join(dir, "group.cert"),
		"--trust", filepath.Join(dir, "signer.pub.pem"),
		"-n", filepath.Join(dir, "nonce"),
		"-o", memberDir)
	gt.Expect(err).NotTo(HaveOccurred(), out)

	out, err = run("issue", "-i", dir, "-n", filepath.Join(dir, "nonce"), "-r", filepath.Join(memberDir, "join.req"), "-o", memberDir)
	gt.Expect(err).NotTo(HaveOccurred(), out)

	out, err = run("issue", "-i", dir, "-n", filepath.Join(dir, "nonce"), "-r", filepath.Join(memberDir, "join.req"), "-o", dir)
	gt.Expect(err).To(HaveOccurred())
	gt.Expect(out).To(ContainSubstring("a credential was already issued"))

	out, err = run("complete",
		"-g", filepath.Join(dir, "group.pub"),
		"--credential", filepath.Join(memberDir, "member.cred"),
		"--secret", filepath.Join(memberDir, "member.secret"),
		"-o", memberDir)
	gt.Expect(err).NotTo(HaveOccurred(), out)
	gt.Expect(filepath.Join(memberDir, "member.key")).To(BeAnExistingFile())
	gt.Expect(filepath.Join(memberDir, "member.secret")).NotTo(BeAnExistingFile())

	out, err = run("health", "-i", dir)
	gt.Expect(err).NotTo(HaveOccurred(), out)
	gt.Expect(out).To(ContainSubstring("OK"))

	out, err = run("demo", "-m", "3")
	gt.Expect(err).NotTo(HaveOccurred(), out)
	gt.Expect(out).To(ContainSubstring("issued [3] credentials"))

	out, err = run("config")
	gt.Expect(err).NotTo(HaveOccurred(), out)
	gt.Expect(out).To(ContainSubstring("noncettl"))

	out, err = run("version", "extra")
	gt.Expect(err).To(HaveOccurred())
	gt.Expect(out).To(ContainSubstring("trailing args detected"))
}
