package gitx_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/testbed/internal/gitx"
)

var _ = Describe("GitRunner.Run", func() {
	var runner *gitx.GitRunner

	BeforeEach(func() {
		runner = &gitx.GitRunner{}
	})

	It("runs git version successfully", func() {
		out, err := runner.Run(context.Background(), "", "version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("git version"))
	})

	It("errors for nonexistent directory", func() {
		_, err := runner.Run(context.Background(), "/nonexistent/path/xyz", "status")
		Expect(err).To(HaveOccurred())
	})

	It("respects context cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runner.Run(ctx, "", "version")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("IsRepo", func() {
	It("returns true for a valid working tree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:rev-parse --is-inside-work-tree": {Output: "true"},
		}}
		ok, err := gitx.IsRepo(context.Background(), mock, "/testbed")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("returns false on error", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:rev-parse --is-inside-work-tree": {Err: errors.New("not a repo")},
		}}
		ok, err := gitx.IsRepo(context.Background(), mock, "/testbed")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Clone", func() {
	It("clones into the target directory", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			":clone https://example.com/src.git /testbed": {Output: ""},
		}}
		Expect(gitx.Clone(context.Background(), mock, "https://example.com/src.git", "/testbed")).To(Succeed())
	})

	It("wraps clone failures with tool output", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			":clone https://example.com/src.git /testbed": {Output: "fatal: could not resolve host", Err: errors.New("exit status 128")},
		}}
		err := gitx.Clone(context.Background(), mock, "https://example.com/src.git", "/testbed")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("could not resolve host"))
	})
})

var _ = Describe("RevisionExists", func() {
	It("returns true when rev-parse verifies the commit", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:rev-parse --quiet --verify abc123^{commit}": {Output: "abc123def"},
		}}
		ok, err := gitx.RevisionExists(context.Background(), mock, "/testbed", "abc123")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("returns false when the revision is unknown", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:rev-parse --quiet --verify nope^{commit}": {Err: errors.New("exit status 1")},
		}}
		ok, err := gitx.RevisionExists(context.Background(), mock, "/testbed", "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ResetHard and Clean", func() {
	It("resets to the requested revision", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:reset --hard abc123": {Output: "HEAD is now at abc123"},
		}}
		Expect(gitx.ResetHard(context.Background(), mock, "/testbed", "abc123")).To(Succeed())
	})

	It("cleans untracked files and directories", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:clean -fd": {Output: "Removing junk/"},
		}}
		Expect(gitx.Clean(context.Background(), mock, "/testbed")).To(Succeed())
	})

	It("propagates reset failures", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:reset --hard nope": {Output: "fatal: unknown revision", Err: errors.New("exit status 128")},
		}}
		err := gitx.ResetHard(context.Background(), mock, "/testbed", "nope")
		Expect(err).To(MatchError(ContainSubstring("unknown revision")))
	})
})

var _ = Describe("Submodules", func() {
	It("parses recursive submodule status output", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:submodule status --recursive": {Output: " 1111111111111111111111111111111111111111 vendor/infogami (v1.0)\n-2222222222222222222222222222222222222222 vendor/infogami/deep"},
		}}
		subs, err := gitx.Submodules(context.Background(), mock, "/testbed")
		Expect(err).NotTo(HaveOccurred())
		Expect(subs).To(HaveLen(2))
		Expect(subs[0].Path).To(Equal("vendor/infogami"))
		Expect(subs[0].Initialized).To(BeTrue())
		Expect(subs[1].Path).To(Equal("vendor/infogami/deep"))
		Expect(subs[1].Initialized).To(BeFalse())
	})

	It("returns nothing when the repo has no submodules", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:submodule status --recursive": {Output: ""},
		}}
		subs, err := gitx.Submodules(context.Background(), mock, "/testbed")
		Expect(err).NotTo(HaveOccurred())
		Expect(subs).To(BeEmpty())
	})
})

var _ = Describe("ListTree and blobs", func() {
	It("lists blob paths at a revision", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:ls-tree -r --name-only beefcafe": {Output: "x.txt\ntests/t.py"},
		}}
		paths, err := gitx.ListTree(context.Background(), mock, "/testbed", "beefcafe")
		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(Equal([]string{"x.txt", "tests/t.py"}))
	})

	It("reads blob content without trimming", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:show beefcafe:tests/t.py": {Raw: []byte("new-test-content\n")},
		}}
		content, err := gitx.ShowBlob(context.Background(), mock, "/testbed", "beefcafe", "tests/t.py")
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal([]byte("new-test-content\n")))
	})

	It("reports blob existence", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:cat-file -e beefcafe:tests/t.py": {Output: ""},
			"/testbed:cat-file -e beefcafe:missing.py": {Err: errors.New("exit status 1")},
		}}
		ok, err := gitx.BlobExists(context.Background(), mock, "/testbed", "beefcafe", "tests/t.py")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = gitx.BlobExists(context.Background(), mock, "/testbed", "beefcafe", "missing.py")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Head", func() {
	It("reports a detached HEAD after a hard reset to a commit", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:rev-parse HEAD":          {Output: "abc123def456"},
			"/testbed:symbolic-ref --quiet HEAD": {Err: errors.New("exit status 1")},
		}}
		head, err := gitx.Head(context.Background(), mock, "/testbed")
		Expect(err).NotTo(HaveOccurred())
		Expect(head.Revision).To(Equal("abc123def456"))
		Expect(head.Detached).To(BeTrue())
	})

	It("reports an attached HEAD on a branch", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/testbed:rev-parse HEAD":          {Output: "abc123def456"},
			"/testbed:symbolic-ref --quiet HEAD": {Output: "refs/heads/main"},
		}}
		head, err := gitx.Head(context.Background(), mock, "/testbed")
		Expect(err).NotTo(HaveOccurred())
		Expect(head.Detached).To(BeFalse())
	})
})

var _ = Describe("Trusted directories", func() {
	It("lists configured safe directories", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			":config --global --get-all safe.directory": {Output: "/testbed\n/other"},
		}}
		dirs, err := gitx.TrustedDirs(context.Background(), mock)
		Expect(err).NotTo(HaveOccurred())
		Expect(dirs).To(Equal([]string{"/testbed", "/other"}))
	})

	It("treats a missing key as empty", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			":config --global --get-all safe.directory": {Err: errors.New("exit status 1")},
		}}
		dirs, err := gitx.TrustedDirs(context.Background(), mock)
		Expect(err).NotTo(HaveOccurred())
		Expect(dirs).To(BeEmpty())
	})

	It("adds a safe directory entry", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			":config --global --add safe.directory /testbed": {Output: ""},
		}}
		Expect(gitx.AddTrustedDir(context.Background(), mock, "/testbed")).To(Succeed())
	})
})
