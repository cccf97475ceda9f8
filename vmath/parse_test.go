package vmath

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

func TestParseFixed(t *testing.T) {
	tests := []struct {
		in   string
		want Fixed
	}{
		{"0", 0},
		{"20", FromInt(20)},
		{"-3", FromInt(-3)},
		{"+1.5", FromRatio(3, 2)},
		{"0.5", Half},
		{".25", FromRatio(1, 4)},
		{"-0.1", -6554},
		{"0.01", 655},
		{"32767.9999847", MaxFixed},
		{"-32768", MinFixed},
	}
	for _, tt := range tests {
		got, err := ParseFixed(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseFixedErrors(t *testing.T) {
	for _, in := range []string{"", "-", ".", "abc", "1.2.3", "1e3", "32768", "-40000", "--1"} {
		_, err := ParseFixed(in)
		assert.Error(t, err, in)
	}

	_, err := ParseFixed("99999")
	assert.ErrorIs(t, err, ErrFixedRange)
}

func TestFixedString(t *testing.T) {
	assert.Equal(t, "0", Fixed(0).String())
	assert.Equal(t, "20", FromInt(20).String())
	assert.Equal(t, "-1.5", FromRatio(-3, 2).String())
	assert.Equal(t, "0.25", FromRatio(1, 4).String())
	assert.Equal(t, "4", WideFromInt(4).String())

	// Six digits are enough to reproduce every raw value
	for _, raw := range []int32{1, 7, 6553, 6554, 65535, -65537, 123456789} {
		v := Fixed(raw)
		back, err := ParseFixed(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, back, "raw %d via %q", raw, v.String())
	}
}

func TestFixedYAML(t *testing.T) {
	var cfg struct {
		Speed  Fixed `yaml:"speed"`
		Radius Fixed `yaml:"radius"`
	}
	err := yaml.Unmarshal([]byte("speed: 80\nradius: 0.1\n"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, FromInt(80), cfg.Speed)
	assert.Equal(t, Fixed(6554), cfg.Radius)

	err = yaml.Unmarshal([]byte("speed: fast\n"), &cfg)
	assert.Error(t, err)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), `speed: "80"`)
}

func TestFixedJSON(t *testing.T) {
	v := V2(FromRatio(3, 2), FromRatio(-1, 4))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1.5,"y":-0.25}`, string(data))

	var back Vec2
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, v, back)

	var quoted Fixed
	require.NoError(t, json.Unmarshal([]byte(`"20"`), &quoted))
	assert.Equal(t, FromInt(20), quoted)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &quoted))
}

func TestFixedMsgpackStaysRaw(t *testing.T) {
	data, err := msgpack.Marshal(FromRatio(3, 2))
	require.NoError(t, err)
	var raw int32
	require.NoError(t, msgpack.Unmarshal(data, &raw))
	assert.Equal(t, int32(3<<15), raw)
}
