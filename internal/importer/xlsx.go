package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nepaledu/edusearch/internal/models"
)

// optionsSeparator splits a question's options cell.
const optionsSeparator = "|"

// decodeWorkbook reads every sheet named after a kind. Other sheets are ignored.
// Header cells are JSON field names; empty cells are left out of the record.
func decodeWorkbook(data []byte) (map[models.EntityKind][]models.Entity, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	out := make(map[models.EntityKind][]models.Entity)
	for _, sheet := range f.GetSheetList() {
		kind, err := models.ParseKind(sheet)
		if err != nil {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		records := rowsToRecords(rows)
		payload, err := json.Marshal(records)
		if err != nil {
			return nil, err
		}
		entities, err := models.DecodeEntities(kind, payload)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		out[kind] = entities
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sheet named after a content type")
	}
	return out, nil
}

func rowsToRecords(rows [][]string) []map[string]any {
	records := []map[string]any{}
	if len(rows) == 0 {
		return records
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	for _, row := range rows[1:] {
		rec := make(map[string]any)
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if header[i] == "options" {
				rec[header[i]] = splitOptions(cell)
				continue
			}
			rec[header[i]] = cell
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records
}

func splitOptions(cell string) []string {
	var out []string
	for _, p := range strings.Split(cell, optionsSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
