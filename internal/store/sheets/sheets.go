// Package sheets stores each table as one tab of a Google Sheets spreadsheet.
//
// A write clears the tab and appends the new rows in a single batchUpdate call, which
// the Sheets API applies atomically. Cells are written as plain strings so a table reads
// back exactly as it was written.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"alugueis/internal/encoding"
	"alugueis/internal/store"
)

type Store struct {
	svc           *gsheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64 // tab title -> sheet id
}

var _ store.TableStore = (*Store)(nil)

// New creates a Sheets client for the given spreadsheet.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Store, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheetIDs: map[string]int64{}}, nil
}

// Scopes are the OAuth scopes the store needs.
var Scopes = []string{gsheets.SpreadsheetsScope}

func quoteRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func (s *Store) ReadTable(ctx context.Context, tableID string) ([]byte, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteRange(tableID)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		if isMissingRange(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
		}
		return nil, fmt.Errorf("read sheet %s: %w", tableID, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range resp.Values {
		if err := w.Write(toStrings(row)); err != nil {
			return nil, fmt.Errorf("encode sheet %s: %w", tableID, err)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *Store) WriteTable(ctx context.Context, tableID string, data []byte) error {
	rows, err := decodeRows(data)
	if err != nil {
		return fmt.Errorf("decode table %s: %w", tableID, err)
	}
	sheetID, ok, err := s.lookupSheet(ctx, tableID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
	}

	requests := []*gsheets.Request{{
		UpdateCells: &gsheets.UpdateCellsRequest{
			Range:  &gsheets.GridRange{SheetId: sheetID, ForceSendFields: []string{"SheetId"}},
			Fields: "userEnteredValue",
		},
	}}
	if len(rows) > 0 {
		requests = append(requests, &gsheets.Request{
			AppendCells: &gsheets.AppendCellsRequest{
				SheetId:         sheetID,
				Rows:            toRowData(rows),
				Fields:          "userEnteredValue",
				ForceSendFields: []string{"SheetId"},
			},
		})
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", tableID, err)
	}
	return nil
}

func (s *Store) EnsureExists(ctx context.Context, tableID, name, _ string) (string, error) {
	title := tableID
	if title == "" {
		title = name
	}
	if title == "" {
		return "", store.ErrInvalidTableID
	}
	if _, ok, err := s.lookupSheet(ctx, title); err != nil {
		return "", err
	} else if ok {
		return title, nil
	}

	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		s.mu.Lock()
		s.sheetIDs[title] = resp.Replies[0].AddSheet.Properties.SheetId
		s.mu.Unlock()
	} else {
		s.forget()
	}
	return title, nil
}

// lookupSheet resolves a tab title, refreshing the cached title index on a miss.
func (s *Store) lookupSheet(ctx context.Context, title string) (int64, bool, error) {
	s.mu.Lock()
	id, ok := s.sheetIDs[title]
	s.mu.Unlock()
	if ok {
		return id, true, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("get spreadsheet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheetIDs = make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok = s.sheetIDs[title]
	return id, ok, nil
}

func (s *Store) forget() {
	s.mu.Lock()
	s.sheetIDs = map[string]int64{}
	s.mu.Unlock()
}

func isMissingRange(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func decodeRows(data []byte) ([][]string, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, encoding.BOM))) == 0 {
		return nil, nil
	}
	r, err := encoding.NewUTF8Reader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func toRowData(rows [][]string) []*gsheets.RowData {
	out := make([]*gsheets.RowData, 0, len(rows))
	for _, row := range rows {
		cells := make([]*gsheets.CellData, 0, len(row))
		for _, v := range row {
			cells = append(cells, &gsheets.CellData{
				UserEnteredValue: &gsheets.ExtendedValue{StringValue: &v},
			})
		}
		out = append(out, &gsheets.RowData{Values: cells})
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}
