// internal/stages/output/write-results/handler.go
package writeresults

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/models"
)

const (
	TaskType = "write-results"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.Sheet == "" {
		config.Sheet = DefaultSheet
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute writes the match set to input.Path. The file is staged next to
// the target and renamed into place, so a failed run leaves no partial file.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	set := input.Matches
	if set == nil {
		set = &models.MatchSet{}
	}
	columns := set.OutputColumns()

	rows, err := tabulate(set, columns)
	if err != nil {
		return nil, err
	}

	var write func(io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(input.Path)); ext {
	case ".xlsx", ".xlsm":
		write = func(w io.Writer) error { return h.writeXLSX(w, columns, rows) }
	case ".csv":
		write = func(w io.Writer) error { return writeCSV(w, columns, rows) }
	default:
		return nil, apperrors.NewResultWriteError(input.Path, fmt.Errorf("unsupported output extension %q", ext))
	}

	if err := writeAtomic(input.Path, write); err != nil {
		return nil, apperrors.NewResultWriteError(input.Path, err)
	}

	h.logger.Info("Matches written", map[string]interface{}{
		"path":    input.Path,
		"rows":    len(rows),
		"columns": len(columns),
	})
	return &Output{Path: input.Path, Columns: columns, Rows: len(rows)}, nil
}

// tabulate flattens records into cells. Only scalar values fit in a cell.
func tabulate(set *models.MatchSet, columns []string) ([][]interface{}, error) {
	rows := make([][]interface{}, 0, len(set.Records))
	for i := range set.Records {
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			v := set.Records[i].Value(col)
			switch v.(type) {
			case nil, string, bool, float64, int:
			default:
				return nil, apperrors.NewResultParseError(
					fmt.Sprintf("record %d column %q holds a nested %T", i+1, col, v))
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (h *Handler) writeXLSX(w io.Writer, columns []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", h.config.Sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(h.config.Sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(h.config.Sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeCSV(w io.Writer, columns []string, rows [][]interface{}) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
