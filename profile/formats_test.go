package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bumblegum/guitarcore/profile"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]profile.Format{
		"json":  profile.FormatJSON,
		"YAML":  profile.FormatYAML,
		"yml":   profile.FormatYAML,
		".toml": profile.FormatTOML,
	}
	for in, want := range tests {
		got, err := profile.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := profile.ParseFormat("ini")
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	p := profile.Default()
	p.DeviceName = "Roadie"
	p.LEDBrightness = 0.5
	p.WhammyReverse = true
	p.USBMode = profile.USBModeXInput

	for _, format := range []profile.Format{profile.FormatJSON, profile.FormatYAML, profile.FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := profile.Export(p, format)
			require.NoError(t, err)

			got, warnings, err := profile.Import(data, format)
			require.NoError(t, err)
			assert.Empty(t, warnings)
			assert.Equal(t, p, got)
		})
	}
}

func TestImportYAMLAcceptsIntegralBrightness(t *testing.T) {
	got, _, err := profile.Import([]byte("led_brightness: 1\nwhammy_min: 10\n"), profile.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.LEDBrightness)
	assert.Equal(t, uint32(10), got.WhammyMin)
}

func TestImportRejectsGarbage(t *testing.T) {
	_, _, err := profile.Import([]byte("= = ="), profile.FormatTOML)
	var pe *profile.ParseError
	assert.ErrorAs(t, err, &pe)
}
