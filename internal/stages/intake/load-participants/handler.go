// internal/stages/intake/load-participants/handler.go
package loadparticipants

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/common/validation"
	"mentor-matcher/internal/models"
)

const (
	TaskType = "load-participants"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrNoHeader          = errors.New("input has no header row")
	ErrNoEmailColumn     = errors.New("email column not found")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute reads the survey file at input.Path. Every non-blank data row
// becomes one participant, in file order.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := h.readRows(input.Path)
	if err != nil {
		return nil, apperrors.NewDataAccessError(input.Path, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewDataAccessError(input.Path, ErrNoHeader)
	}

	cols, err := h.resolveColumns(rows[0])
	if err != nil {
		return nil, apperrors.NewDataAccessError(input.Path, err)
	}

	out := &Output{Participants: make([]*models.Participant, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		p := h.buildParticipant(rows[0], pad(row, len(rows[0])), cols, i+2)
		out.Participants = append(out.Participants, p)

		switch p.Role {
		case models.RoleMentor:
			out.Mentors++
		case models.RoleMentee:
			out.Mentees++
		default:
			out.UnknownRole++
		}
		if !validation.ValidateEmail(p.Email) {
			out.InvalidEmails++
		}
	}

	h.logger.Info("participants loaded", map[string]interface{}{
		"path":        input.Path,
		"count":       len(out.Participants),
		"mentors":     out.Mentors,
		"mentees":     out.Mentees,
		"unknownRole": out.UnknownRole,
	})

	return out, nil
}

func (h *Handler) readRows(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return h.readWorkbook(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (h *Handler) readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := h.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

type columnIndex struct {
	email, role, objectives, details, capacity int
	known                                      map[int]bool
}

func (h *Handler) resolveColumns(header []string) (*columnIndex, error) {
	find := func(name string) int {
		want := normalize(name)
		for i, col := range header {
			if normalize(col) == want {
				return i
			}
		}
		return -1
	}

	m := h.config.Columns
	idx := &columnIndex{
		email:      find(m.Email),
		role:       find(m.Role),
		objectives: find(m.Objectives),
		details:    find(m.Details),
		capacity:   find(m.Capacity),
		known:      map[int]bool{},
	}
	if idx.email < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoEmailColumn, m.Email)
	}

	for _, i := range []int{idx.email, idx.role, idx.objectives, idx.details, idx.capacity} {
		if i >= 0 {
			idx.known[i] = true
		}
	}
	for name, i := range map[string]int{"role": idx.role, "objectives": idx.objectives, "details": idx.details, "capacity": idx.capacity} {
		if i < 0 {
			h.logger.Warn("survey column missing", map[string]interface{}{"column": name})
		}
	}
	return idx, nil
}

func (h *Handler) buildParticipant(header, row []string, cols *columnIndex, line int) *models.Participant {
	cell := func(i int) string {
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	p := &models.Participant{
		Email:      cell(cols.email),
		Role:       models.ParseRole(cell(cols.role)),
		Objectives: cell(cols.objectives),
		Details:    cell(cols.details),
	}

	if p.Role == models.RoleMentor {
		if raw := cell(cols.capacity); raw != "" {
			capacity, err := parseCapacity(raw)
			if err != nil {
				h.logger.Warn("invalid capacity", map[string]interface{}{"row": line, "value": raw})
			} else {
				p.Capacity = &capacity
			}
		}
		if p.Capacity == nil && h.config.DefaultCapacity > 0 {
			p.Capacity = models.CapacityOf(h.config.DefaultCapacity)
		}
	}

	for i, name := range header {
		if cols.known[i] {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || cell(i) == "" {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]string)
		}
		p.Attributes[name] = cell(i)
	}

	if !validation.ValidateEmail(p.Email) {
		h.logger.Warn("participant email looks invalid", map[string]interface{}{"row": line, "email": p.Email})
	}
	if p.Role == models.RoleUnknown {
		h.logger.Warn("participant role not recognised", map[string]interface{}{"row": line, "email": p.Email})
	}
	return p
}

// parseCapacity accepts "2" and spreadsheet-formatted "2.0".
func parseCapacity(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative capacity %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("capacity %q is not a whole number", raw)
	}
	return int(f), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
