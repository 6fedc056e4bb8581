package tableio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

var (
	header = []string{"id", "price", "rooms"}
	rows   = [][]string{{"h1", "250000", "3"}, {"h2", "310000.5", "4"}, {"h3", "199000", "2"}}
)

func TestCodecFor(t *testing.T) {
	tests := map[string]Codec{
		"sold.csv":     None,
		"sold.csv.gz":  Gzip,
		"sold.CSV.ZST": Zstd,
		"new.csv.lz4":  LZ4,
		"noext":        None,
	}
	for path, want := range tests {
		assert.Equal(t, want, CodecFor(path), path)
	}
}

func TestRoundTripAllCodecs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"t.csv", "t.csv.gz", "t.csv.zst", "t.csv.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteCSV(path, header, rows))

			table, err := ReadCSV(path)
			require.NoError(t, err)
			assert.Equal(t, header, table.Header)
			assert.Equal(t, rows, table.Rows)
		})
	}
}

func TestReadTrimsHeader(t *testing.T) {
	table, err := Read(strings.NewReader(" id , price\nh1,10\n"), None)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "price"}, table.Header)
	assert.Len(t, table.Rows, 1)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader(""), None)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = Read(strings.NewReader("a,b\n1,2,3\n"), None)
	assert.Error(t, err)

	_, err = Read(strings.NewReader("not gzip"), Gzip)
	assert.Error(t, err)

	_, err = ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestWriteRejectsRaggedRows(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, None, header, [][]string{{"h1", "1"}})
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}
