package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestLocate_NewestWins(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	old := writeFile(t, dir, "Inventory_monday.xlsx", base)
	newest := writeFile(t, dir, "Inventory_tuesday.xlsx", base.Add(30*time.Minute))
	middle := writeFile(t, dir, "Inventory_export.xlsx", base.Add(10*time.Minute))

	locator := NewLocator(nil)
	authoritative, candidates, err := locator.Locate(dir, "Inventory")
	require.NoError(t, err)

	assert.Equal(t, newest, authoritative)
	assert.ElementsMatch(t, []string{old, newest, middle}, candidates)
}

func TestLocate_FiltersByPatternAndExtension(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	match := writeFile(t, dir, "Inventory_report.xlsx", now)
	writeFile(t, dir, "Sales by Transaction.xlsx", now)
	writeFile(t, dir, "Inventory_notes.txt", now)

	locator := NewLocator(nil)
	authoritative, candidates, err := locator.Locate(dir, "Inventory")
	require.NoError(t, err)

	assert.Equal(t, match, authoritative)
	assert.Equal(t, []string{match}, candidates)
}

func TestLocate_NoMatches(t *testing.T) {
	locator := NewLocator(nil)
	authoritative, candidates, err := locator.Locate(t.TempDir(), "Inventory")
	require.NoError(t, err)
	assert.Empty(t, authoritative)
	assert.Empty(t, candidates)
}

func TestLocate_MissingFolder(t *testing.T) {
	locator := NewLocator(nil)
	_, _, err := locator.Locate(filepath.Join(t.TempDir(), "nope"), "Inventory")
	assert.Error(t, err)
}

func TestDeleteAll_RemovesEveryCandidate(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	a := writeFile(t, dir, "Inventory_a.xlsx", now)
	b := writeFile(t, dir, "Inventory_b.xlsx", now)

	locator := NewLocator(nil)
	locator.DeleteAll([]string{a, b})

	_, err := os.Stat(a)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(b)
	assert.True(t, os.IsNotExist(err))
}
