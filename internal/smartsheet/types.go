package smartsheet

import (
	"fmt"
	"sort"
)

// SheetInfo describes a sheet as returned by the sheet listing endpoint.
type SheetInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Permalink string `json:"permalink,omitempty"`
}

// Column describes a sheet column.
type Column struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Cell is a single cell within a row. Value may be a string, number or
// boolean depending on the column type; DisplayValue is the formatted
// text the service shows to users.
type Cell struct {
	ColumnID     int64       `json:"columnId"`
	Value        interface{} `json:"value,omitempty"`
	DisplayValue string      `json:"displayValue,omitempty"`
}

// SheetRow is a raw row as returned by the API.
type SheetRow struct {
	ID        int64  `json:"id"`
	RowNumber int    `json:"rowNumber"`
	Cells     []Cell `json:"cells"`
}

// Sheet is the full sheet payload.
type Sheet struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	Columns []Column   `json:"columns"`
	Rows    []SheetRow `json:"rows"`
}

// Row is one sheet row flattened to a mapping of column title to cell
// text. This is the shape the analysis pipeline consumes.
type Row map[string]string

// listSheetsResponse is the paginated envelope for the sheet listing endpoint.
type listSheetsResponse struct {
	PageNumber int         `json:"pageNumber"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
	TotalCount int         `json:"totalCount"`
	Data       []SheetInfo `json:"data"`
}

// apiErrorResponse is the Smartsheet error envelope.
type apiErrorResponse struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	RefID     string `json:"refId"`
}

// APIError is an error returned by the Smartsheet API. It propagates
// unmodified to the caller; no retry is attempted.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
	RefID      string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("smartsheet API error %d (http %d): %s", e.ErrorCode, e.StatusCode, e.Message)
}

// ColumnTitles returns the sheet's column titles in sheet order.
func (s *Sheet) ColumnTitles() []string {
	cols := make([]Column, len(s.Columns))
	copy(cols, s.Columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })

	titles := make([]string, 0, len(cols))
	for _, col := range cols {
		titles = append(titles, col.Title)
	}
	return titles
}

// ToRows flattens the sheet into title-keyed rows. DisplayValue takes
// precedence over Value, matching how the service formats cells for
// users; untyped values are stringified.
func (s *Sheet) ToRows() []Row {
	columnTitles := make(map[int64]string, len(s.Columns))
	for _, col := range s.Columns {
		columnTitles[col.ID] = col.Title
	}

	rows := make([]Row, 0, len(s.Rows))
	for _, sheetRow := range s.Rows {
		row := make(Row, len(sheetRow.Cells))
		for _, cell := range sheetRow.Cells {
			title, ok := columnTitles[cell.ColumnID]
			if !ok {
				title = fmt.Sprintf("Column_%d", cell.ColumnID)
			}
			row[title] = cellText(cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// cellText formats a cell as text, preferring the display value.
func cellText(cell Cell) string {
	if cell.DisplayValue != "" {
		return cell.DisplayValue
	}
	switch v := cell.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; render integers without a fraction
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
