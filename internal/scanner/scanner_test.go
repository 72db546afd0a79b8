package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTitleArtistAlbum(t *testing.T) {
	t.Parallel()

	r := Scan("Title: Purple Rain ")
	assert.Equal(t, KindTitle, r.Kind)
	assert.Equal(t, "Purple Rain", r.Text)

	r = Scan("artist:  Prince")
	assert.Equal(t, KindArtist, r.Kind, "labels are case-insensitive")
	assert.Equal(t, "Prince", r.Text)
	assert.Equal(t, "Prince", r.DisplayText)

	r = Scan("ALBUM: 1999")
	assert.Equal(t, KindAlbum, r.Kind)
	assert.Equal(t, "1999", r.Text)
}

func TestScanArtistDisplayOverride(t *testing.T) {
	t.Parallel()

	r := Scan("Artist: Justin Bieber")
	require.Equal(t, KindArtist, r.Kind)
	assert.Equal(t, "Justin Bieber", r.Text, "canonical artist keeps the real text")
	assert.Equal(t, DisplayArtistPlaceholder, r.DisplayText)
}

func TestScanBER(t *testing.T) {
	t.Parallel()

	r := Scan("12:03:04 Sync: BER: 0.015")
	require.Equal(t, KindBER, r.Kind, "label may appear mid-line")
	assert.InDelta(t, 1.5, r.Percent, 1e-9, "fraction is stored as percent")

	r = Scan("BER: 0")
	require.Equal(t, KindBER, r.Kind)
	assert.Equal(t, 0.0, r.Percent)

	r = Scan("BER: 1.2e-3")
	require.Equal(t, KindBER, r.Kind)
	assert.InDelta(t, 0.12, r.Percent, 1e-9)
}

func TestScanMalformedBERIsIgnored(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"BER: e+-", "BER: ..", "BER: +-+", "BER: -5"} {
		r := Scan(line)
		assert.Equal(t, KindNone, r.Kind, "line %q must not produce a sample", line)
	}
}

func TestScanStationLocation(t *testing.T) {
	t.Parallel()

	r := Scan("Station location: 35.90, -95.77, 300m")
	require.Equal(t, KindStation, r.Kind)
	assert.Equal(t, 35.90, r.Station.Lat)
	assert.Equal(t, -95.77, r.Station.Lon)
	assert.Equal(t, 300.0, r.Station.AltM)

	r = Scan("station location: 1.5,2.5,10m")
	require.Equal(t, KindStation, r.Kind, "label is case-insensitive, spacing optional")
	assert.Equal(t, 2.5, r.Station.Lon)
}

func TestScanUnmatchedLine(t *testing.T) {
	t.Parallel()

	r := Scan("Found station SPS: KOSU-HD1")
	assert.Equal(t, KindNone, r.Kind)
	assert.Empty(t, r.Text)
}

func TestFormatBER(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.500 %", FormatBER(1.5))
	assert.Equal(t, "0.000 %", FormatBER(0))
}
