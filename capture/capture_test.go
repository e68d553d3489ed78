package capture

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpingel/access1581/bitstream"
)

func mustParse(t *testing.T, s string) *bitstream.Bitstream {
	t.Helper()
	bs, err := bitstream.Parse(s)
	require.NoError(t, err)
	return bs
}

func TestSetReplacesExistingEntry(t *testing.T) {
	c := New()
	c.Set(0, 0, mustParse(t, "0101"))
	c.Set(0, 0, mustParse(t, "1111"))
	c.Set(0, 1, mustParse(t, "0011"))

	require.Len(t, c.Tracks, 2)
	tracks, err := c.Bitstreams()
	require.NoError(t, err)
	require.Equal(t, "1111", tracks[0][0].String())
	require.Equal(t, "0011", tracks[0][1].String())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New()
	c.Set(0, 0, mustParse(t, "010010001"))
	c.Set(0, 1, mustParse(t, "111000111"))
	c.Set(79, 1, mustParse(t, "01"))

	path := filepath.Join(t.TempDir(), "capture.toml")
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	tracks, err := loaded.Bitstreams()
	require.NoError(t, err)

	require.Equal(t, "010010001", tracks[0][0].String())
	require.Equal(t, "111000111", tracks[0][1].String())
	require.Equal(t, "01", tracks[79][1].String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestBitstreamsRejectsGarbage(t *testing.T) {
	c := &Capture{Tracks: []TrackBits{{Cylinder: 0, Head: 0, Bits: "01x1"}}}
	_, err := c.Bitstreams()
	require.Error(t, err)
}
