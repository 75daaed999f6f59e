package owl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	owl "github.com/orukusaki/owl-patch"
)

func bindParameters(t *testing.T, checksum owl.Checksum) (*fakeFirmware, *owl.Parameters) {
	t.Helper()

	f := newFakeFirmware(t, checksum, stereoInt32, 32)
	patch := f.bind("params")

	params, err := patch.Parameters()
	require.NoError(t, err)

	return f, params
}

func TestParameterGet(t *testing.T) {
	f, params := bindParameters(t, owl.PROGRAM_VECTOR_CHECKSUM_V13)

	assert.Equal(t, 8, params.Count())

	f.params[owl.PARAMETER_A] = 4096
	f.params[owl.PARAMETER_B] = 2048
	f.params[owl.PARAMETER_C] = -4096

	assert.Equal(t, float32(1.0), params.Get(owl.PARAMETER_A))
	assert.Equal(t, float32(0.5), params.Get(owl.PARAMETER_B))
	assert.Equal(t, float32(-1.0), params.Get(owl.PARAMETER_C))
	assert.Equal(t, float32(0.0), params.Get(owl.PARAMETER_D))

	assert.Zero(t, params.Get(owl.PatchParameterId(40)), "out-of-range slot reads as zero")
}

func TestParameterRegister(t *testing.T) {
	f, params := bindParameters(t, owl.PROGRAM_VECTOR_CHECKSUM_V11)

	params.Register(owl.PARAMETER_A, "Cutoff")
	params.Register(owl.PARAMETER_F, "Level>")

	assert.Equal(t, map[uint8]string{0: "Cutoff", 5: "Level>"}, f.paramRegs)
}

func TestParameterSet(t *testing.T) {
	f, params := bindParameters(t, owl.PROGRAM_VECTOR_CHECKSUM_V12)

	params.Set(owl.PARAMETER_F, 0.5)
	params.Set(owl.PARAMETER_G, -1.0)

	assert.Equal(t, map[uint8]int16{5: 2048, 6: -4096}, f.paramWrites)
}

func TestParameterSetIgnoredBeforeV12(t *testing.T) {
	f, params := bindParameters(t, owl.PROGRAM_VECTOR_CHECKSUM_V11)

	params.Set(owl.PARAMETER_F, 0.5)

	assert.Empty(t, f.paramWrites)
}

func TestButtons(t *testing.T) {
	f, params := bindParameters(t, owl.PROGRAM_VECTOR_CHECKSUM_V12)

	f.pv.Buttons = 1<<0 | 1<<2
	assert.True(t, params.GetButton(owl.PUSHBUTTON))
	assert.False(t, params.GetButton(owl.BUTTON_1))
	assert.True(t, params.GetButton(owl.BUTTON_2))

	params.SetButton(owl.BUTTON_3, true)
	params.SetButton(owl.BUTTON_3, false)
	assert.Equal(t, []uint16{0xfff, 0}, f.buttonWrites)
}

func TestButtonCallback(t *testing.T) {
	f, params := bindParameters(t, owl.PROGRAM_VECTOR_CHECKSUM_V12)

	var got []owl.PatchButtonId
	var states []uint16
	err := params.OnButtonChanged(func(bid owl.PatchButtonId, state, samples uint16) {
		got = append(got, bid)
		states = append(states, state)
	})
	require.NoError(t, err)
	require.NotNil(t, f.pv.ButtonChangedCallback)

	f.pv.ButtonChangedCallback(uint8(owl.BUTTON_1), 0xfff, 17)
	f.pv.ButtonChangedCallback(uint8(owl.BUTTON_1), 0, 3)

	assert.Equal(t, []owl.PatchButtonId{owl.BUTTON_1, owl.BUTTON_1}, got)
	assert.Equal(t, []uint16{0xfff, 0}, states)
}

func TestButtonCallbackUnavailableOnV11(t *testing.T) {
	f, params := bindParameters(t, owl.PROGRAM_VECTOR_CHECKSUM_V11)

	err := params.OnButtonChanged(func(owl.PatchButtonId, uint16, uint16) {})
	assert.ErrorIs(t, err, owl.ErrNotAvailable)
	assert.Nil(t, f.pv.ButtonChangedCallback)
}
