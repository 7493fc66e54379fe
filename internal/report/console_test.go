package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansalabs/wardsim/internal/engine"
	"github.com/hansalabs/wardsim/internal/hospital"
	"github.com/hansalabs/wardsim/internal/ontology"
)

func runWithConsole(t *testing.T, wheel []string, steps int) string {
	t.Helper()
	kb, err := ontology.LoadSource("embedded", strings.NewReader(ontology.DefaultSource()))
	require.NoError(t, err)

	var buf bytes.Buffer
	sim := engine.NewSimulation(kb, hospital.BuildRoster(3, 2, 2), wheel, steps, 7, NewConsole(&buf))
	sim.Run()
	return buf.String()
}

func TestConsoleReportShape(t *testing.T) {
	out := runWithConsole(t, []string{"influenza"}, 1)

	assert.Contains(t, out, "=== Step 1 ===")
	assert.Contains(t, out, "New Patient 7 arrives with disease: Influenza")
	assert.Contains(t, out, "Patient 7 treated for Influenza:")
	assert.Contains(t, out, "  - Treatment: Antiviral Course")
	assert.Contains(t, out, "  - Doctor: Dr Voss")
	assert.Contains(t, out, "  - Nurse: Nurse Astrid")
	assert.Contains(t, out, "  - Ward: General Ward")
	assert.Contains(t, out, "--- Run complete ---")
	assert.Contains(t, out, "Admitted: 1 patients (1 fully resolved)")
	assert.Contains(t, out, "Unresolved lookups: 0")
	assert.Contains(t, out, "Fact set: embedded (")
}

func TestConsoleLineOrder(t *testing.T) {
	out := runWithConsole(t, []string{"pneumonia"}, 2)

	banner1 := strings.Index(out, "=== Step 1 ===")
	arrival1 := strings.Index(out, "New Patient 7 arrives")
	record1 := strings.Index(out, "Patient 7 treated for")
	banner2 := strings.Index(out, "=== Step 2 ===")
	summary := strings.Index(out, "--- Run complete ---")

	require.NotEqual(t, -1, banner1)
	require.NotEqual(t, -1, banner2)
	assert.Less(t, banner1, arrival1)
	assert.Less(t, arrival1, record1)
	assert.Less(t, record1, banner2)
	assert.Less(t, banner2, summary)
}

func TestConsoleSentinels(t *testing.T) {
	out := runWithConsole(t, []string{"rabies"}, 1)

	assert.Contains(t, out, "New Patient 7 arrives with disease: Rabies")
	assert.Contains(t, out, "  - Treatment: no treatment on record")
	assert.Contains(t, out, "  - Doctor: no doctor on record")
	assert.Contains(t, out, "  - Nurse: no nurse on record")
	assert.Contains(t, out, "  - Ward: no ward on record")
	assert.Contains(t, out, "Unresolved lookups: 4")
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"antiviral_course": "Antiviral Course",
		"dr_voss":          "Dr Voss",
		"influenza":        "Influenza",
		"general_ward":     "General Ward",
		"x":                "X",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, displayName(in), "input %q", in)
	}
}
