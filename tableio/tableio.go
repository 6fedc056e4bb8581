// Package tableio reads and writes the CSV tables consumed and produced by
// the hedonic command. Files ending in .gz, .zst or .lz4 are compressed
// transparently.
package tableio

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/YuminosukeSato/hedonic/dataset"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// Codec is the compression applied to a table file.
type Codec string

const (
	None Codec = ""
	Gzip Codec = "gzip"
	Zstd Codec = "zstd"
	LZ4  Codec = "lz4"
)

// CodecFor picks the codec from the file extension.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

func decompress(r io.Reader, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return readCloser{Reader: dec, close: func() error { dec.Close(); return nil }}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

func compress(w io.Writer, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Read parses a CSV table with a header row from r.
func Read(r io.Reader, codec Codec) (dataset.Table, error) {
	rc, err := decompress(r, codec)
	if err != nil {
		return dataset.Table{}, errors.Wrapf(err, "open %s stream", codecName(codec))
	}
	defer rc.Close()

	reader := csv.NewReader(bufio.NewReader(rc))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return dataset.Table{}, errors.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return dataset.Table{}, errors.ErrEmptyData
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return dataset.Table{Header: header, Rows: records[1:]}, nil
}

// ReadCSV reads the table stored at path.
func ReadCSV(path string) (dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataset.Table{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	t, err := Read(f, CodecFor(path))
	if err != nil {
		return dataset.Table{}, errors.Wrapf(err, "read %s", path)
	}
	return t, nil
}

// Write encodes header and rows as CSV into w.
func Write(w io.Writer, codec Codec, header []string, rows [][]string) error {
	wc, err := compress(w, codec)
	if err != nil {
		return errors.Wrapf(err, "open %s stream", codecName(codec))
	}
	cw := csv.NewWriter(wc)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return errors.Wrapf(errors.NewDimensionError("tableio.Write", len(header), len(row), 1), "row %d", i)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return wc.Close()
}

// WriteCSV writes the table to path, replacing any existing file.
func WriteCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	if err = Write(f, CodecFor(path), header, rows); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func codecName(c Codec) string {
	if c == None {
		return "plain"
	}
	return string(c)
}
