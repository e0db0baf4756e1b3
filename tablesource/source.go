package tablesource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/unkn0wn-root/menusync/catalog"
)

// Source yields the raw table rows.
type Source interface {
	Rows(ctx context.Context) ([][]string, error)
}

// Load reads src and builds the table tree.
func Load(ctx context.Context, src Source) ([]catalog.TableMenu, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("tablesource: read rows: %w", err)
	}
	return Build(rows)
}

// StaticSource serves fixed rows.
type StaticSource [][]string

func (s StaticSource) Rows(context.Context) ([][]string, error) { return s, nil }

// CSVSource reads a local CSV export of the table. Rows may have any number
// of fields.
type CSVSource struct {
	Path  string
	Comma rune // 0 => ','
}

func (s CSVSource) Rows(ctx context.Context) ([][]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if s.Comma != 0 {
		r.Comma = s.Comma
	}
	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

const (
	DefaultRange       = "A1:G100"
	DefaultValueRender = "FORMATTED_VALUE"
)

type SheetsConfig struct {
	SpreadsheetID   string
	Range           string // "" => A1:G100
	ValueRender     string // "" => FORMATTED_VALUE
	CredentialsFile string // "" => application default credentials
}

// SheetsSource reads the table from a Google spreadsheet.
type SheetsSource struct {
	svc *sheets.Service
	cfg SheetsConfig
}

func NewSheetsSource(ctx context.Context, cfg SheetsConfig) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("tablesource: spreadsheet id is required")
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}
	if cfg.ValueRender == "" {
		cfg.ValueRender = DefaultValueRender
	}
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("tablesource: sheets client: %w", err)
	}
	return &SheetsSource{svc: svc, cfg: cfg}, nil
}

func (s *SheetsSource) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.Range).
		ValueRenderOption(s.cfg.ValueRender).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return cellsToRows(resp.Values), nil
}

func cellsToRows(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		row := make([]string, len(v))
		for i, cell := range v {
			if cell != nil {
				row[i] = fmt.Sprint(cell)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
