package acceptance_test

import (
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("automerge validate", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "automerge-validate-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("with a valid config", func() {
		It("exits with code 0 and reports valid", func() {
			path := filepath.Join(tmpDir, "valid.yml")
			writeFile(path, "source: ^/project/stable\ntarget: /work/trunk\nmax_revisions: 50\n")

			cmd := exec.Command(binaryPath, "validate", path)
			output, err := cmd.CombinedOutput()
			Expect(err).NotTo(HaveOccurred(), "output: %s", string(output))
			Expect(string(output)).To(ContainSubstring("valid"))
		})
	})

	Context("with invalid YAML syntax", func() {
		It("exits with a non-zero code and reports a parse error", func() {
			path := filepath.Join(tmpDir, "invalid.yml")
			writeFile(path, "source: [unterminated\n")

			cmd := exec.Command(binaryPath, "validate", path)
			output, err := cmd.CombinedOutput()
			Expect(err).To(HaveOccurred())
			Expect(string(output)).To(ContainSubstring("YAML"))
		})
	})

	Context("with a negative max_revisions", func() {
		It("exits with a non-zero code and names the field", func() {
			path := filepath.Join(tmpDir, "negative.yml")
			writeFile(path, "source: ^/project/stable\ntarget: /work/trunk\nmax_revisions: -1\n")

			cmd := exec.Command(binaryPath, "validate", path)
			output, err := cmd.CombinedOutput()
			Expect(err).To(HaveOccurred())
			Expect(string(output)).To(ContainSubstring("max_revisions"))
		})
	})
})
