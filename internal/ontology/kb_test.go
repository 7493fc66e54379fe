package ontology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultSource(t *testing.T) {
	kb, err := LoadSource("embedded", strings.NewReader(DefaultSource()))
	require.NoError(t, err)

	assert.Equal(t, "embedded", kb.Source())
	assert.Equal(t, []string{"fracture", "influenza", "migraine", "pneumonia"}, kb.Diseases())
	assert.GreaterOrEqual(t, kb.FactCount(), 15)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.mg")
	require.NoError(t, os.WriteFile(path, []byte(DefaultSource()), 0644))

	kb, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, kb.Source())
	assert.Len(t, kb.Diseases(), 4)
}

func TestLoadEmptyPathUsesEmbedded(t *testing.T) {
	kb, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "embedded", kb.Source())
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unterminated fact", "has_treatment(/influenza"},
		{"missing period", "has_treatment(/influenza, /antiviral_course)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSource(tt.name, strings.NewReader(tt.source))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.mg"))
		assert.Error(t, err)
	})

	t.Run("malformed file halts load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.mg")
		require.NoError(t, os.WriteFile(path, []byte("treated_by(/x,"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestCareTeamsDerived(t *testing.T) {
	kb, err := LoadSource("embedded", strings.NewReader(DefaultSource()))
	require.NoError(t, err)

	teams := kb.CareTeams()
	require.Len(t, teams, 4)

	// Sorted by disease.
	assert.Equal(t, "fracture", teams[0].Disease)
	assert.Equal(t, CareTeam{Disease: "influenza", Doctor: "dr_voss", Nurse: "nurse_astrid"}, teams[1])

	ct, ok := kb.CareTeamFor("pneumonia")
	require.True(t, ok)
	assert.Equal(t, "dr_holloway", ct.Doctor)
	assert.Equal(t, "nurse_petra", ct.Nurse)

	_, ok = kb.CareTeamFor("rabies")
	assert.False(t, ok)
}

func TestCareTeamsAgreeWithChain(t *testing.T) {
	kb, err := LoadSource("embedded", strings.NewReader(DefaultSource()))
	require.NoError(t, err)

	for _, ct := range kb.CareTeams() {
		treatment := kb.Resolve(RelTreatment, ct.Disease)
		require.True(t, treatment.Found, "disease %s", ct.Disease)

		doctor := kb.Resolve(RelDoctor, treatment.Object)
		require.True(t, doctor.Found)
		assert.Equal(t, ct.Doctor, doctor.Object)

		nurse := kb.Resolve(RelNurse, doctor.Object)
		require.True(t, nurse.Found)
		assert.Equal(t, ct.Nurse, nurse.Object)
	}
}

func TestCareTeamsAbsentWithoutRule(t *testing.T) {
	source := `
has_treatment(/influenza, /antiviral_course).
assigned_to(/antiviral_course, /dr_voss).
`
	kb, err := LoadSource("norule", strings.NewReader(source))
	require.NoError(t, err)
	assert.Empty(t, kb.CareTeams())
}

func TestFactsEnumeration(t *testing.T) {
	kb, err := LoadSource("embedded", strings.NewReader(DefaultSource()))
	require.NoError(t, err)

	treatments := kb.Facts(RelTreatment)
	require.Len(t, treatments, 4)
	assert.Equal(t, FactPair{Subject: "fracture", Object: "cast_immobilization"}, treatments[0])

	nurses := kb.Facts(RelNurse)
	assert.Len(t, nurses, 3)
}
