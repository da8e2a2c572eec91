package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"alugueis/internal/store"
)

// fakeSheets implements the three Sheets endpoints the store uses.
type fakeSheets struct {
	mu      sync.Mutex
	nextID  int64
	ids     map[string]int64
	cells   map[int64][][]string
	batches int
}

func newFakeSheets(titles ...string) *fakeSheets {
	f := &fakeSheets{ids: map[string]int64{}, cells: map[int64][][]string{}}
	for _, t := range titles {
		f.ids[t] = f.nextID
		f.nextID++
	}
	return f
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/v4/spreadsheets/sheet-1"
	path := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && path == "":
		var out gsheets.Spreadsheet
		for title, id := range f.ids {
			out.Sheets = append(out.Sheets, &gsheets.Sheet{Properties: &gsheets.SheetProperties{Title: title, SheetId: id}})
		}
		_ = json.NewEncoder(w).Encode(out)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/values/"):
		title := strings.Trim(strings.TrimPrefix(path, "/values/"), "'")
		id, ok := f.ids[title]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range: ` + title + `"}}`))
			return
		}
		var values [][]interface{}
		for _, row := range f.cells[id] {
			vr := make([]interface{}, len(row))
			for i, v := range row {
				vr[i] = v
			}
			values = append(values, vr)
		}
		_ = json.NewEncoder(w).Encode(gsheets.ValueRange{Values: values})

	case r.Method == http.MethodPost && path == ":batchUpdate":
		f.batches++
		var req gsheets.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var resp gsheets.BatchUpdateSpreadsheetResponse
		for _, rq := range req.Requests {
			reply := &gsheets.Response{}
			switch {
			case rq.AddSheet != nil:
				id := f.nextID
				f.nextID++
				f.ids[rq.AddSheet.Properties.Title] = id
				reply.AddSheet = &gsheets.AddSheetResponse{Properties: &gsheets.SheetProperties{Title: rq.AddSheet.Properties.Title, SheetId: id}}
			case rq.UpdateCells != nil:
				f.cells[rq.UpdateCells.Range.SheetId] = nil
			case rq.AppendCells != nil:
				for _, row := range rq.AppendCells.Rows {
					var vals []string
					for _, c := range row.Values {
						vals = append(vals, *c.UserEnteredValue.StringValue)
					}
					f.cells[rq.AppendCells.SheetId] = append(f.cells[rq.AppendCells.SheetId], vals)
				}
			}
			resp.Replies = append(resp.Replies, reply)
		}
		_ = json.NewEncoder(w).Encode(resp)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStore(t *testing.T, fake *fakeSheets) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	s, err := New(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return s
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ")
	require.Error(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	fake := newFakeSheets("financas")
	s := newTestStore(t, fake)
	ctx := context.Background()

	payload := "\ufeffData,Apartamento,Valor\n2024-03-05,Apto 1,1000.00\n2024-03-06,Comum,\"1,5\"\n"
	require.NoError(t, s.WriteTable(ctx, "financas", []byte(payload)))

	got, err := s.ReadTable(ctx, "financas")
	require.NoError(t, err)
	assert.Equal(t, "Data,Apartamento,Valor\n2024-03-05,Apto 1,1000.00\n2024-03-06,Comum,\"1,5\"\n", string(got))

	// A second write replaces rather than appends.
	require.NoError(t, s.WriteTable(ctx, "financas", []byte("Data\n2025-01-01\n")))
	got, err = s.ReadTable(ctx, "financas")
	require.NoError(t, err)
	assert.Equal(t, "Data\n2025-01-01\n", string(got))
}

func TestToRowDataKeepsEachCell(t *testing.T) {
	rows := toRowData([][]string{{"Data", "Valor"}, {"2024-03-05", "1000.00"}})
	require.Len(t, rows, 2)
	var got []string
	for _, r := range rows {
		for _, c := range r.Values {
			got = append(got, *c.UserEnteredValue.StringValue)
		}
	}
	assert.Equal(t, []string{"Data", "Valor", "2024-03-05", "1000.00"}, got)
}

func TestWriteIsSingleBatch(t *testing.T) {
	fake := newFakeSheets("financas")
	s := newTestStore(t, fake)

	require.NoError(t, s.WriteTable(context.Background(), "financas", []byte("a,b\n1,2\n")))
	assert.Equal(t, 1, fake.batches)
}

func TestEmptyTableReadsNil(t *testing.T) {
	s := newTestStore(t, newFakeSheets("vazia"))

	got, err := s.ReadTable(context.Background(), "vazia")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMissingTab(t *testing.T) {
	s := newTestStore(t, newFakeSheets())
	ctx := context.Background()

	_, err := s.ReadTable(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrTableNotFound)

	err = s.WriteTable(ctx, "nope", []byte("a\n"))
	assert.ErrorIs(t, err, store.ErrTableNotFound)
}

func TestEnsureExistsAddsTabOnce(t *testing.T) {
	fake := newFakeSheets("existente")
	s := newTestStore(t, fake)
	ctx := context.Background()

	id, err := s.EnsureExists(ctx, "", "ocupacao", "")
	require.NoError(t, err)
	assert.Equal(t, "ocupacao", id)
	assert.Equal(t, 1, fake.batches)

	id, err = s.EnsureExists(ctx, "ocupacao", "ocupacao", "")
	require.NoError(t, err)
	assert.Equal(t, "ocupacao", id)
	assert.Equal(t, 1, fake.batches)

	id, err = s.EnsureExists(ctx, "existente", "", "")
	require.NoError(t, err)
	assert.Equal(t, "existente", id)
	assert.Equal(t, 1, fake.batches)

	_, err = s.EnsureExists(ctx, "", "", "")
	assert.ErrorIs(t, err, store.ErrInvalidTableID)
}
