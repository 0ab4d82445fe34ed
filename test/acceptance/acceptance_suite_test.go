package acceptance_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var binaryPath string

func TestAcceptance(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Acceptance Suite")
}

var _ = BeforeSuite(func() {
	// Build the binary once for all acceptance tests.
	_, thisFile, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	binaryPath = filepath.Join(projectRoot, "bin", "automerge-test")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/automerge")
	cmd.Dir = projectRoot
	cmd.Env = append(cmd.Environ(), "CGO_ENABLED=0")
	output, err := cmd.CombinedOutput()
	Expect(err).NotTo(HaveOccurred(), "Failed to build binary: %s", string(output))
})

// fakeSVN is a shell script standing in for the real svn binary, driven by
// a dispatch table keyed on the svn subcommand (log, status, mergeinfo,
// merge, commit, update, revert, resolved, info, cat), read after the
// leading --non-interactive argument every invocation starts with. Acceptance tests
// build one per scenario and put its directory first on PATH, the same
// substitution strategy the teacher repo uses to fake the coding agent
// binary under test/acceptance.
func writeFakeSVN(dir string, dispatch map[string]string) string {
	script := "#!/bin/sh\nset -e\nif [ \"$1\" = \"--non-interactive\" ]; then shift; fi\ncmd=\"$1\"\nshift\ncase \"$cmd\" in\n"
	for subcmd, body := range dispatch {
		script += fmt.Sprintf("  %s)\n%s\n    ;;\n", subcmd, body)
	}
	script += "  *)\n    echo \"fake svn: unhandled subcommand $cmd\" >&2\n    exit 1\n    ;;\nesac\n"

	path := filepath.Join(dir, "svn")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		panic(err)
	}
	return path
}

func binEnv(binDir string) []string {
	env := os.Environ()
	return append(env, "PATH="+binDir+":"+os.Getenv("PATH"))
}

func writeFile(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		panic(err)
	}
}
