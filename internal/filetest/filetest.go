// Package filetest compares a test's output against a checked-in golden
// file, with flags to regenerate the goldens instead of failing. The
// instrumentor's golden tests are driven by named in-memory fixtures (there
// is no parser, so no directory of source files to scan), which is why the
// entry point takes a fixture name rather than an os.FileInfo.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var testUpdateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// DiffString validates output against the golden file <name><ext> under
// resultDir. label names the kind of output in failure messages. When
// updateFlag (or -test.update-all-tests) is set, the golden is rewritten
// from output instead of compared.
func DiffString(t *testing.T, name, label, ext, output, resultDir string, updateFlag *bool) {
	t.Helper()

	goldFile := filepath.Join(resultDir, name+ext)
	if *updateFlag || *testUpdateAllTests {
		if err := os.WriteFile(goldFile, []byte(output), 0600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want %s:\n%s\n", label, want)
		}
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}
