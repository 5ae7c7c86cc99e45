package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "disabled"})
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFetchParsesRows(t *testing.T) {
	path := writeCatalog(t, `title,asin,category,keywords,image_path,benefits,price_anchor
Widget Pro,B0ABCDEFGH,kitchen,gadget|cooking,widget.jpg,fast|cheap,under $25
Bare Minimum,,,,,,
`)
	s := New(config.CSVConfig{Path: path, ImagesDir: "/img"}, testLogger())

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Widget Pro", items[0].Title)
	assert.Equal(t, "B0ABCDEFGH", items[0].ExternalID)
	assert.Equal(t, "kitchen", items[0].Category)
	assert.Equal(t, []string{"gadget", "cooking"}, items[0].Keywords)
	assert.Equal(t, []string{"fast", "cheap"}, items[0].Benefits)
	assert.Equal(t, "under $25", items[0].PriceAnchor)
	assert.Equal(t, filepath.Join("/img", "widget.jpg"), items[0].ImagePath)

	assert.Equal(t, "Bare Minimum", items[1].Title)
	assert.Empty(t, items[1].ExternalID)
	assert.Empty(t, items[1].ImagePath)
}

func TestFetchDropsMalformedASIN(t *testing.T) {
	path := writeCatalog(t, `title,asin
Good,B0ABCDEFGH
Short ID,B123
Lowercase Ok,b0abcdefgh
`)
	s := New(config.CSVConfig{Path: path}, testLogger())

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "B0ABCDEFGH", items[0].ExternalID)
	assert.Empty(t, items[1].ExternalID, "short ASIN keeps the row, loses the id")
	assert.Equal(t, "B0ABCDEFGH", items[2].ExternalID, "ASINs are upper-cased before validation")
}

func TestFetchSkipsUntitledRows(t *testing.T) {
	path := writeCatalog(t, `title,asin
,B0ABCDEFGH
Real Product,
`)
	s := New(config.CSVConfig{Path: path}, testLogger())

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Real Product", items[0].Title)
}

func TestFetchRequiresTitleColumn(t *testing.T) {
	path := writeCatalog(t, "name,asin\nX,B0ABCDEFGH\n")
	s := New(config.CSVConfig{Path: path}, testLogger())

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
}

func TestFetchMissingFile(t *testing.T) {
	s := New(config.CSVConfig{Path: filepath.Join(t.TempDir(), "absent.csv")}, testLogger())

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	require.Error(t, s.HealthCheck(context.Background()))
}

func TestHealthCheck(t *testing.T) {
	path := writeCatalog(t, "title\nOk\n")
	s := New(config.CSVConfig{Path: path}, testLogger())
	require.NoError(t, s.HealthCheck(context.Background()))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a | b "))
	assert.Equal(t, []string{"solo"}, splitList("solo"))
	assert.Equal(t, []string{"x"}, splitList("x||"))
}
