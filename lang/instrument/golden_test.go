package instrument_test

import (
	"encoding/json"
	"flag"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livepack-go/scopetrace/internal/filetest"
	"github.com/livepack-go/scopetrace/lang/instrument"
)

var testUpdateInstrumentTests = flag.Bool("test.update-instrument-tests", false,
	"If set, updates the expected output of the instrument tests.")

func TestInstrumentMetadataGolden(t *testing.T) {
	prog := counterProgram()
	result, err := instrument.Instrument(prog, token.NewFileSet(), instrument.Options{Filename: "counter.js"})
	require.NoError(t, err)

	blob, err := json.MarshalIndent(result.Metadata, "", "  ")
	require.NoError(t, err)

	filetest.DiffString(t, "counter", "metadata", ".json", string(blob)+"\n", "testdata", testUpdateInstrumentTests)
}
