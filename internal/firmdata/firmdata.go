// Package firmdata decodes firm profiles from CSV, JSON, XLSX and XML
// payloads at local or remote locations.
package firmdata

import (
	"bytes"
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-stress/internal/fetcher"
	"github.com/sells-group/credit-stress/internal/model"
)

// Format names a firm data encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format name. "xls" is not accepted.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX, FormatXML:
		return f, nil
	default:
		return "", eris.Wrapf(model.ErrConfiguration, "firmdata: unknown format %q (want csv, json, xlsx or xml)", s)
	}
}

// DetectFormat picks the format from the extension of location.
func DetectFormat(location string) (Format, error) {
	ext := fetcher.Ext(location)
	if ext == "" {
		return "", eris.Wrapf(model.ErrConfiguration, "firmdata: cannot infer format of %s, set it explicitly", location)
	}
	return ParseFormat(ext)
}

// Options controls decoding. A zero Format is detected from the location.
type Options struct {
	Format Format
	// Sheet selects an XLSX worksheet by name; the first sheet otherwise.
	Sheet string
}

// Loader reads firm profiles through a fetcher.Opener.
type Loader struct {
	opener *fetcher.Opener
}

// NewLoader creates a Loader.
func NewLoader(opener *fetcher.Opener) *Loader {
	return &Loader{opener: opener}
}

// Load reads and decodes every firm at location. Each firm is validated;
// the first invalid one aborts the load with model.ErrInvalidInput.
func (l *Loader) Load(ctx context.Context, location string, opts Options) ([]model.FirmProfile, error) {
	if opts.Format == "" {
		f, err := DetectFormat(location)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}

	data, err := l.opener.ReadAll(ctx, location)
	if err != nil {
		return nil, eris.Wrap(err, "firmdata: load")
	}

	firms, err := Decode(ctx, data, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "firmdata: %s", location)
	}

	zap.L().Info("firmdata: loaded firms",
		zap.String("location", location),
		zap.String("format", string(opts.Format)),
		zap.Int("firms", len(firms)),
	)
	return firms, nil
}

// Decode parses data in opts.Format into validated firm profiles, in input
// order. Duplicate firm identifiers are rejected.
func Decode(ctx context.Context, data []byte, opts Options) ([]model.FirmProfile, error) {
	recs, err := decodeRecords(ctx, data, opts)
	if err != nil {
		return nil, err
	}

	firms := make([]model.FirmProfile, 0, len(recs))
	seen := make(map[string]int, len(recs))
	for _, r := range recs {
		f, err := r.profile()
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[f.ID]; dup {
			return nil, eris.Wrapf(model.ErrInvalidInput, "firmdata: row %d: duplicate firm %q (first at row %d)", r.row, f.ID, prev)
		}
		seen[f.ID] = r.row
		if err := f.Validate(); err != nil {
			return nil, eris.Wrapf(err, "firmdata: row %d", r.row)
		}
		firms = append(firms, f)
	}
	return firms, nil
}

func decodeRecords(ctx context.Context, data []byte, opts Options) ([]record, error) {
	switch opts.Format {
	case FormatCSV:
		t, err := fetcher.ReadCSV(ctx, bytes.NewReader(data), fetcher.CSVOptions{TrimSpace: true, Comment: '#'})
		if err != nil {
			return nil, eris.Wrap(err, "firmdata: csv")
		}
		return tableRecords(t)

	case FormatXLSX:
		t, err := fetcher.ReadXLSX(data, fetcher.XLSXOptions{SheetName: opts.Sheet})
		if err != nil {
			return nil, eris.Wrap(err, "firmdata: xlsx")
		}
		return tableRecords(t)

	case FormatJSON:
		return decodeJSON(ctx, bytes.NewReader(data))

	case FormatXML:
		return decodeXML(ctx, bytes.NewReader(data))

	default:
		return nil, eris.Wrapf(model.ErrConfiguration, "firmdata: unknown format %q", opts.Format)
	}
}
