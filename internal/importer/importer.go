// Package importer loads parts from spreadsheet (.xlsx) and CSV files.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/storage"
)

// Format is an import file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
	ErrUnsupportedFormat = errors.New("unsupported import format")
	// ErrMissingColumn is returned when the header row lacks name or sku.
	ErrMissingColumn = errors.New("missing required column")
)

// ParseFormat maps "xlsx", ".csv", "CSV", ... to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromName returns the format implied by a file name's extension.
func FormatFromName(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// RowError describes why a row was not imported. Row is the 1-based line or
// spreadsheet row, the header being row 1.
type RowError struct {
	Row     int              `json:"row"`
	Field   string           `json:"field"`
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// Result summarizes an import.
type Result struct {
	File     string     `json:"file,omitempty"`
	Inserted int        `json:"inserted"`
	Errors   []RowError `json:"errors"`
}

// Creator stores a new part. catalog.Service satisfies it.
type Creator interface {
	Create(ctx context.Context, in *models.PartInput) (*models.Part, error)
}

// Importer creates parts from rows of an import file.
type Importer struct {
	creator Creator
	logger  *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// New creates an Importer that stores parts through creator.
func New(creator Creator, opts ...Option) *Importer {
	im := &Importer{creator: creator, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile imports the file at path; the format comes from its extension.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	res, err := im.Import(ctx, f, format)
	if res != nil {
		res.File = path
	}
	if err != nil {
		return res, err
	}
	im.logger.Info("import finished",
		zap.String("path", path),
		zap.Int("inserted", res.Inserted),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

// Import reads rows from r and creates one part per data row. Rows that fail validation
// or collide with an existing SKU are reported in Result.Errors and do not stop the import.
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format) (*Result, error) {
	rows, err := ReadRows(r, format)
	if err != nil {
		return nil, err
	}
	res := &Result{Errors: make([]RowError, 0)}
	if len(rows) == 0 {
		return res, nil
	}
	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rowNum := i + 2
		if blank(row) {
			continue
		}
		in, rowErrs := cols.input(row, rowNum)
		if len(rowErrs) > 0 {
			res.Errors = append(res.Errors, rowErrs...)
			continue
		}
		_, err := im.creator.Create(ctx, in)
		switch {
		case err == nil:
			res.Inserted++
		case errors.Is(err, storage.ErrDuplicateSKU):
			res.Errors = append(res.Errors, RowError{
				Row: rowNum, Field: "sku", Kind: models.KindDuplicate,
				Message: fmt.Sprintf("sku %s already exists", in.SKU),
			})
		default:
			verr, ok := models.AsValidationError(err)
			if !ok {
				return res, fmt.Errorf("row %d: %w", rowNum, err)
			}
			for _, fe := range verr.Fields {
				res.Errors = append(res.Errors, RowError{Row: rowNum, Field: fe.Field, Kind: fe.Kind, Message: fe.Message})
			}
		}
	}
	return res, nil
}

// ReadRows returns every row of the first sheet (xlsx) or of the CSV stream.
func ReadRows(r io.Reader, format Format) ([][]string, error) {
	switch format {
	case FormatXLSX:
		return readXLSX(r)
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func readXLSX(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read Excel: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// columns holds the index of each known column, -1 when absent.
type columns struct {
	name, sku, description, weight, active int
}

func mapHeader(header []string) (*columns, error) {
	cols := &columns{name: -1, sku: -1, description: -1, weight: -1, active: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "name":
			cols.name = i
		case "sku":
			cols.sku = i
		case "description":
			cols.description = i
		case "weight_ounces", "weight_onces", "weight":
			cols.weight = i
		case "is_active", "active":
			cols.active = i
		}
	}
	var missing []string
	if cols.name < 0 {
		missing = append(missing, "name")
	}
	if cols.sku < 0 {
		missing = append(missing, "sku")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c *columns) input(row []string, rowNum int) (*models.PartInput, []RowError) {
	in := &models.PartInput{
		Name:        cell(row, c.name),
		SKU:         cell(row, c.sku),
		Description: cell(row, c.description),
	}
	var errs []RowError
	if v := cell(row, c.weight); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, RowError{Row: rowNum, Field: "weight_ounces", Kind: models.KindInvalid,
				Message: fmt.Sprintf("weight_ounces must be an integer, got %q", v)})
		}
		in.WeightOunces = w
	}
	if v := cell(row, c.active); v != "" {
		a, ok := parseActive(v)
		if !ok {
			errs = append(errs, RowError{Row: rowNum, Field: "is_active", Kind: models.KindInvalid,
				Message: fmt.Sprintf("is_active must be 0 or 1, got %q", v)})
		}
		in.IsActive = &a
	}
	return in, errs
}

func parseActive(v string) (int, bool) {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return 1, true
	case "0", "false", "no":
		return 0, true
	}
	return 0, false
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
