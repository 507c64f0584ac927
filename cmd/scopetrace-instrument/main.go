// Command scopetrace-instrument runs the lang/instrument pipeline over a
// built-in demo fixture and prints its tracker comments and metadata JSON.
package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/livepack-go/scopetrace/internal/maincmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}"
	buildDate = "{d}"
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
