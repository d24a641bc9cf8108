package vcs_test

import (
	"context"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/testbed/internal/gitx"
	"github.com/skaphos/testbed/internal/vcs"
)

// recordingRunner captures git invocations without executing anything.
type recordingRunner struct {
	calls []string
	out   string
}

func (r *recordingRunner) Run(_ context.Context, dir string, args ...string) (string, error) {
	r.calls = append(r.calls, fmt.Sprintf("%s:%s", dir, strings.Join(args, " ")))
	return r.out, nil
}

func (r *recordingRunner) Output(_ context.Context, dir string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, fmt.Sprintf("%s:%s", dir, strings.Join(args, " ")))
	return []byte(r.out), nil
}

var _ = Describe("GitAdapter", func() {
	It("defaults to the real git runner when none is supplied", func() {
		adapter := vcs.NewGitAdapter(nil)
		Expect(adapter.Runner).NotTo(BeNil())
		Expect(adapter.Name()).To(Equal("git"))
	})

	It("uses the injected runner", func() {
		rec := &recordingRunner{out: "true"}
		adapter := vcs.NewGitAdapter(rec)

		ok, err := adapter.IsRepo(context.Background(), "/testbed")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(rec.calls).To(ConsistOf("/testbed:rev-parse --is-inside-work-tree"))
	})

	It("issues the expected git commands for pipeline operations", func() {
		rec := &recordingRunner{}
		adapter := vcs.NewGitAdapter(rec)
		ctx := context.Background()

		Expect(adapter.Clone(ctx, "https://example.com/src.git", "/testbed")).To(Succeed())
		Expect(adapter.MarkTrusted(ctx, "/testbed")).To(Succeed())
		Expect(adapter.ResetHard(ctx, "/testbed", "abc123")).To(Succeed())
		Expect(adapter.Clean(ctx, "/testbed")).To(Succeed())
		Expect(adapter.SubmoduleUpdate(ctx, "/testbed")).To(Succeed())

		Expect(rec.calls).To(Equal([]string{
			":clone https://example.com/src.git /testbed",
			":config --global --add safe.directory /testbed",
			"/testbed:reset --hard abc123",
			"/testbed:clean -fd",
			"/testbed:submodule update --init --recursive",
		}))
	})

	It("satisfies the Adapter interface", func() {
		var _ vcs.Adapter = vcs.NewGitAdapter(&gitx.GitRunner{})
	})
})
