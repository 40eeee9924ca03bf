package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/RichardKnop/rageval"
)

// Adapter reads and writes datasets as CSV files with a header row.
type Adapter struct {
	dir    string
	logger *zap.Logger
}

type Option func(*Adapter)

// WithDir resolves relative file names against dir.
func WithDir(dir string) Option {
	return func(a *Adapter) {
		a.dir = dir
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(options ...Option) *Adapter {
	a := &Adapter{
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"directory", a.dir,
	).Info("init dataset adapter")

	return a
}

func (a *Adapter) path(name string) string {
	if a.dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.dir, name)
}

func (a *Adapter) ReadTable(name string) (*rageval.Table, error) {
	f, err := os.Open(a.path(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	a.logger.Sugar().Infof("read %d rows from %s", table.Len(), name)

	return table, nil
}

func (a *Adapter) WriteTable(name string, table *rageval.Table) error {
	p := a.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	// Write next to the target and rename, so a failed run never leaves half a file behind.
	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, table); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return err
	}

	a.logger.Sugar().Infof("wrote %d rows to %s", table.Len(), name)

	return nil
}

// Decode reads a CSV with a header row. Short records are padded with empty cells.
func Decode(r io.Reader) (*rageval.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty dataset, missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Files saved by spreadsheet tools often start with a byte order mark.
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	table := rageval.NewTable(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

func Encode(w io.Writer, table *rageval.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(table.Records); err != nil {
		return err
	}
	return writer.Error()
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
