package acceptance_test

import (
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const emptyStatusXML = `<?xml version="1.0" encoding="UTF-8"?>
<status>
  <target path="."></target>
</status>
`

// realChangeStatusXML reports one modified file, the shape svn status
// takes after a merge that actually changed content on disk.
const realChangeStatusXML = `<?xml version="1.0" encoding="UTF-8"?>
<status>
  <target path=".">
    <entry path="target/src/widget.go">
      <wc-status item="modified" props="none"></wc-status>
    </entry>
  </target>
</status>
`

const logEntryXML = `<?xml version="1.0" encoding="UTF-8"?>
<log>
  <logentry revision="5">
    <author>grace</author>
    <date>2026-01-02T03:04:05.000000Z</date>
    <paths>
      <path kind="file" action="M">/project/stable/src/widget.go</path>
    </paths>
    <msg>fix the widget</msg>
  </logentry>
</log>
`

var _ = Describe("automerge merge", func() {
	var tmpDir, binDir, target, commitMarker string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "automerge-merge-*")
		Expect(err).NotTo(HaveOccurred())
		binDir = filepath.Join(tmpDir, "bin")
		Expect(os.MkdirAll(binDir, 0o755)).To(Succeed())
		target = filepath.Join(tmpDir, "target")
		Expect(os.MkdirAll(target, 0o755)).To(Succeed())
		commitMarker = filepath.Join(tmpDir, "committed")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Context("one eligible content revision with real changes on disk", func() {
		BeforeEach(func() {
			writeFakeSVN(binDir, map[string]string{
				"revert":    "    exit 0",
				"update":    "    exit 0",
				"status":    "cat <<'EOF'\n" + realChangeStatusXML + "EOF\n",
				"mergeinfo": "    echo r5",
				"log":       "cat <<'EOF'\n" + logEntryXML + "EOF\n",
				"merge":     "    exit 0",
				"commit":    "    touch " + commitMarker + "\n    exit 0",
			})
		})

		It("exits 0 and commits the batch", func() {
			cmd := exec.Command(binaryPath, "merge",
				"--source", "^/project/stable",
				"--target", target,
				"--target-repo-path", "^/project/trunk",
			)
			cmd.Env = binEnv(binDir)
			output, err := cmd.CombinedOutput()
			Expect(err).NotTo(HaveOccurred(), "output: %s", string(output))
			Expect(commitMarker).To(BeAnExistingFile())
		})
	})

	Context("one eligible content revision that nets no real changes on disk", func() {
		var recordOnlyPath string

		BeforeEach(func() {
			recordOnlyPath = filepath.Join(tmpDir, "record-only.txt")
			writeFakeSVN(binDir, map[string]string{
				"revert":    "    exit 0",
				"update":    "    exit 0",
				"status":    "cat <<'EOF'\n" + emptyStatusXML + "EOF\n",
				"mergeinfo": "    echo r5",
				"log":       "cat <<'EOF'\n" + logEntryXML + "EOF\n",
				"merge":     "    exit 0",
				"commit":    "    touch " + commitMarker + "\n    exit 0",
			})
		})

		It("exits 0, never commits, and persists the revision as record-only", func() {
			cmd := exec.Command(binaryPath, "merge",
				"--source", "^/project/stable",
				"--target", target,
				"--target-repo-path", "^/project/trunk",
				"--record-only-path", recordOnlyPath,
			)
			cmd.Env = binEnv(binDir)
			output, err := cmd.CombinedOutput()
			Expect(err).NotTo(HaveOccurred(), "output: %s", string(output))
			Expect(commitMarker).NotTo(BeAnExistingFile())

			persisted, err := os.ReadFile(recordOnlyPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(persisted)).To(ContainSubstring("5"))
		})
	})

	Context("no eligible revisions", func() {
		BeforeEach(func() {
			writeFakeSVN(binDir, map[string]string{
				"revert":    "    exit 0",
				"update":    "    exit 0",
				"status":    "cat <<'EOF'\n" + emptyStatusXML + "EOF\n",
				"mergeinfo": "    true",
			})
		})

		It("exits 0 and performs no merge", func() {
			cmd := exec.Command(binaryPath, "merge",
				"--source", "^/project/stable",
				"--target", target,
			)
			cmd.Env = binEnv(binDir)
			output, err := cmd.CombinedOutput()
			Expect(err).NotTo(HaveOccurred(), "output: %s", string(output))
		})
	})
})
