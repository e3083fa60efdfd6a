package vocrecord

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassCatalogIDsAreOneIndexed(t *testing.T) {
	c := testCatalog(t, "CPU", "Mesa", "Mouse")

	for i, name := range []string{"CPU", "Mesa", "Mouse"} {
		id, ok := c.ID(name)
		require.True(t, ok, name)
		require.Equal(t, int64(i+1), id)
	}

	_, ok := c.ID("Silla")
	require.False(t, ok)
	_, ok = c.ID("mesa")
	require.False(t, ok, "class names are case sensitive")
	require.Equal(t, 3, c.Len())
}

func TestClassCatalogNamesReturnsCopy(t *testing.T) {
	c := testCatalog(t, "CPU", "Mesa")
	names := c.Names()
	names[0] = "changed"

	id, ok := c.ID("CPU")
	require.True(t, ok)
	require.Equal(t, int64(1), id)
	require.Equal(t, []string{"CPU", "Mesa"}, c.Names())
}

func TestNewClassCatalogRejectsInvalidNames(t *testing.T) {
	_, err := NewClassCatalog(nil)
	require.Error(t, err)

	_, err = NewClassCatalog([]string{"CPU", " "})
	require.ErrorContains(t, err, "empty class name at position 2")

	_, err = NewClassCatalog([]string{"CPU", "Mesa", "CPU"})
	require.ErrorContains(t, err, `duplicate class name "CPU" at positions 1 and 3`)
}

func TestWriteLabelMap(t *testing.T) {
	c := testCatalog(t, "CPU", `Me"sa`)

	var buf bytes.Buffer
	require.NoError(t, c.WriteLabelMap(&buf))
	require.Equal(t, "item {\n  id: 1\n  name: \"CPU\"\n}\n"+
		"item {\n  id: 2\n  name: \"Me\\\"sa\"\n}\n", buf.String())

	path := filepath.Join(t.TempDir(), "label_map.pbtxt")
	require.NoError(t, c.SaveLabelMap(path))
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, buf.String(), string(saved))
}
