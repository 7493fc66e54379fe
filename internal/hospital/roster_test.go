package hospital

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRoster(t *testing.T) {
	r := BuildRoster(3, 2, 2)

	assert.Equal(t, 7, r.Size())
	require.Len(t, r.Doctors, 3)
	require.Len(t, r.Nurses, 2)
	require.Len(t, r.Wards, 2)

	// IDs run 0..6 in doctor, nurse, ward order.
	all := r.All()
	require.Len(t, all, 7)
	for i, entry := range all {
		assert.Equal(t, AgentID(i), entry.ID)
	}

	assert.Equal(t, RoleDoctor, all[0].Role)
	assert.Equal(t, RoleNurse, all[3].Role)
	assert.Equal(t, RoleWard, all[5].Role)

	assert.Equal(t, "Dr. Voss", r.Doctors[0].Name)
	assert.Equal(t, "Nurse Astrid", r.Nurses[0].Name)
	assert.Equal(t, "General Ward", r.Wards[0].Name)
}

func TestBuildRosterPoolCycling(t *testing.T) {
	r := BuildRoster(len(doctorNames)+1, 1, 1)

	first := r.Doctors[0].Name
	wrapped := r.Doctors[len(doctorNames)].Name
	assert.Equal(t, "Dr. Voss", first)
	assert.Equal(t, "Dr. Voss 2", wrapped)
}

func TestDrawOnCall(t *testing.T) {
	r := BuildRoster(3, 2, 2)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		draw := r.DrawOnCall(rng)
		assert.Equal(t, RoleDoctor, draw.Doctor.Role)
		assert.Equal(t, RoleNurse, draw.Nurse.Role)
		assert.Equal(t, RoleWard, draw.Ward.Role)
		assert.Less(t, int(draw.Doctor.ID), 3)
		assert.GreaterOrEqual(t, int(draw.Nurse.ID), 3)
		assert.Less(t, int(draw.Nurse.ID), 5)
		assert.GreaterOrEqual(t, int(draw.Ward.ID), 5)
	}
}

func TestDrawOnCallDeterministic(t *testing.T) {
	r := BuildRoster(3, 2, 2)

	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		assert.Equal(t, r.DrawOnCall(a), r.DrawOnCall(b))
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "doctor", RoleDoctor.String())
	assert.Equal(t, "nurse", RoleNurse.String())
	assert.Equal(t, "ward", RoleWard.String())
	assert.Equal(t, "unknown", Role(9).String())
}
