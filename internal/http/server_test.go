package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"prevgest/internal/core"
	"prevgest/internal/importer"
	"prevgest/internal/spreadsheet"
	"prevgest/internal/storage"
)

type fakeStore struct {
	contracts map[string]core.Contract
	entries   []core.LedgerEntry
	summary   core.DashboardSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{contracts: make(map[string]core.Contract)}
}

func (f *fakeStore) GetContract(_ context.Context, number string) (core.Contract, error) {
	c, ok := f.contracts[number]
	if !ok {
		return core.Contract{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListContracts(_ context.Context) ([]core.Contract, error) {
	out := make([]core.Contract, 0, len(f.contracts))
	for _, c := range f.contracts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) ListEntries(_ context.Context, number string) ([]core.LedgerEntry, error) {
	var out []core.LedgerEntry
	for _, e := range f.entries {
		if e.ContractNumber == number {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendEntry(_ context.Context, e core.LedgerEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

func (f *fakeStore) Summary(_ context.Context) (core.DashboardSummary, error) {
	return f.summary, nil
}

type fakeImports struct {
	lastSheet     *spreadsheet.Sheet
	lastEventType core.EventType
	lastSource    string
	report        *importer.Report
}

func (f *fakeImports) ImportContracts(_ context.Context, sheet *spreadsheet.Sheet, source string) (*importer.Report, error) {
	f.lastSheet = sheet
	f.lastSource = source
	return f.report, nil
}

func (f *fakeImports) ImportFinancialEvents(_ context.Context, sheet *spreadsheet.Sheet, eventType core.EventType, source string) (*importer.Report, error) {
	f.lastSheet = sheet
	f.lastEventType = eventType
	f.lastSource = source
	return f.report, nil
}

type fakeRoster struct{ sheet *spreadsheet.Sheet }

func (f *fakeRoster) FetchRoster(_ context.Context) (*spreadsheet.Sheet, error) {
	return f.sheet, nil
}

func newTestServer(t *testing.T, store *fakeStore, imports *fakeImports, roster RosterFetcher) *Server {
	t.Helper()
	if imports.report == nil {
		imports.report = &importer.Report{}
	}
	srv := NewServer(":0", store, imports, roster, 1<<20)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), &fakeImports{}, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestDashboardRenders(t *testing.T) {
	store := newFakeStore()
	store.summary = core.DashboardSummary{
		ActiveContracts: 2,
		ClosedContracts: 1,
		TotalReceived:   core.Money{Cents: 123456},
		TotalReceivable: core.Money{Cents: 5000},
		BilledByYear:    []core.YearAmount{{Year: "2024", Amount: core.Money{Cents: 128456}}},
	}
	srv := newTestServer(t, store, &fakeImports{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"R$ 1.234,56", "R$ 50,00", "2024"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestContractViewNotFound(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), &fakeImports{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/contratos/0000000-00.0000.0.00.0000", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestContractViewShowsEntries(t *testing.T) {
	store := newFakeStore()
	store.contracts["123"] = core.Contract{Number: "123", Client: "Maria Silva"}
	store.entries = []core.LedgerEntry{
		{ContractNumber: "123", EventType: core.EventRPV, Amount: core.Money{Cents: 250000}, PaymentStatus: core.StatusReceived},
		{ContractNumber: "456", EventType: core.EventFees, Amount: core.Money{Cents: 99}, PaymentStatus: core.StatusReceivable},
	}
	srv := newTestServer(t, store, &fakeImports{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/contratos/123", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Maria Silva") {
		t.Error("expected client name in contract page")
	}
	if !strings.Contains(body, "R$ 2.500,00") {
		t.Error("expected entry amount in contract page")
	}
	if strings.Contains(body, "R$ 0,99") {
		t.Error("entry from another contract leaked into page")
	}
}

func TestCreateEntry(t *testing.T) {
	cases := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantField  string
	}{
		{
			name: "valid entry",
			form: url.Values{
				"tipo_evento": {"RPV"},
				"valor":       {"1.234,56"},
				"status":      {"RECEBIDO"},
			},
			wantStatus: http.StatusSeeOther,
		},
		{
			name: "missing event type",
			form: url.Values{
				"valor":  {"10,00"},
				"status": {"RECEBIDO"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "tipo_evento",
		},
		{
			name: "missing amount",
			form: url.Values{
				"tipo_evento": {"RPV"},
				"status":      {"RECEBIDO"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "valor",
		},
		{
			name: "missing status",
			form: url.Values{
				"tipo_evento": {"RPV"},
				"valor":       {"10,00"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "status",
		},
		{
			name: "malformed amount",
			form: url.Values{
				"tipo_evento": {"RPV"},
				"valor":       {"dez reais"},
				"status":      {"RECEBIDO"},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			store.contracts["123"] = core.Contract{Number: "123", Client: "Maria Silva"}
			srv := newTestServer(t, store, &fakeImports{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/contratos/123/lancamentos",
				strings.NewReader(tc.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if tc.wantField != "" && !strings.Contains(w.Body.String(), tc.wantField) {
				t.Errorf("expected response to name field %q, got %q", tc.wantField, w.Body.String())
			}
			if tc.wantStatus == http.StatusSeeOther {
				if len(store.entries) != 1 {
					t.Fatalf("expected 1 stored entry, got %d", len(store.entries))
				}
				if store.entries[0].Amount.Cents != 123456 {
					t.Errorf("expected 123456 cents, got %d", store.entries[0].Amount.Cents)
				}
			} else if len(store.entries) != 0 {
				t.Errorf("rejected entry should not be stored")
			}
		})
	}
}

func multipartUpload(t *testing.T, field, filename, content string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestImportContractsUpload(t *testing.T) {
	imports := &fakeImports{report: &importer.Report{Inserted: 2, Skipped: 1}}
	srv := newTestServer(t, newFakeStore(), imports, nil)

	csvBody := "Nº Processo;Cliente\n123;Maria\n456;João\n;Sem Numero\n"
	buf, contentType := multipartUpload(t, "arquivo", "contratos.csv", csvBody, nil)

	req := httptest.NewRequest(http.MethodPost, "/importar/contratos", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if imports.lastSource != "upload" {
		t.Errorf("expected source upload, got %q", imports.lastSource)
	}
	if imports.lastSheet == nil || len(imports.lastSheet.Rows) != 3 {
		t.Fatalf("expected 3 parsed rows, got %+v", imports.lastSheet)
	}
	if got := imports.lastSheet.Rows[0]["cliente"]; got != "Maria" {
		t.Errorf("expected normalized header lookup, got %q", got)
	}
}

func TestImportFinancialEventTypeField(t *testing.T) {
	imports := &fakeImports{report: &importer.Report{Inserted: 1}}
	srv := newTestServer(t, newFakeStore(), imports, nil)

	csvBody := "Processo,Valor,Status\n123,\"1.000,00\",Pago\n"
	buf, contentType := multipartUpload(t, "arquivo", "rpv.csv", csvBody,
		map[string]string{"tipo_evento": "precatorio"})

	req := httptest.NewRequest(http.MethodPost, "/importar/financeiro", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if imports.lastEventType != core.EventPrecatorio {
		t.Errorf("expected PRECATORIO, got %q", imports.lastEventType)
	}
}

func TestImportMissingFile(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), &fakeImports{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("tipo_evento", "RPV")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/importar/financeiro", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestImportAstreaRoute(t *testing.T) {
	sheet := spreadsheet.FromRecords([][]string{
		{"Nº Processo", "Cliente"},
		{"123", "Maria"},
	})
	imports := &fakeImports{report: &importer.Report{Inserted: 1}}
	srv := newTestServer(t, newFakeStore(), imports, &fakeRoster{sheet: sheet})

	req := httptest.NewRequest(http.MethodPost, "/importar/astrea", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if imports.lastSource != "astrea" {
		t.Errorf("expected source astrea, got %q", imports.lastSource)
	}
}

func TestAstreaRouteAbsentWithoutRoster(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), &fakeImports{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/importar/astrea", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	if w.Code == http.StatusOK {
		t.Fatal("astrea route should not be mounted without a roster fetcher")
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  abc  ", "abc"},
		{"a\x00b", "ab"},
		{"linha\numa", "linha\numa"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := sanitizeInput(tc.in); got != tc.want {
			t.Errorf("sanitizeInput(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("61st request within a minute should be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("different client should not be affected")
	}
}
