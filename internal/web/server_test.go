package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/formatbridge/internal/config"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/history"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

// testClient is a fixed fb_client cookie value.
const testClient = "6f1c2a4e-93b1-4d7a-9a55-0c2f5e1b8d11"

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()

	cfg, err := config.LoadFrom(func(string) string { return "" })
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Rate.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	svc := core.NewService(core.ServiceConfig{
		MaxInputBytes:     int(cfg.Convert.MaxInputSize),
		MaxUploadBytes:    int(cfg.Convert.MaxUploadSize),
		MaxConcurrentJobs: cfg.Convert.MaxConcurrentJobs,
		MaxWait:           cfg.Convert.MaxWaitTime,
		JobTimeout:        cfg.Convert.JobTimeout,
	}, history.NewRecent(history.NewMemoryStore(cfg.History.Capacity)))

	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

// do runs a request through the router with the test client cookie.
func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	if _, err := req.Cookie(clientCookie); err != nil {
		req.AddCookie(&http.Cookie{Name: clientCookie, Value: testClient})
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target, fileName string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRedirectToLocale(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		accept   string
		location string
	}{
		{"root", "/", "fr-CA,fr;q=0.9,en;q=0.8", "/fr/"},
		{"root without header", "/", "", "/en/"},
		{"conversion", "/json-to-csv", "de", "/de/json-to-csv"},
		{"tool keeps query", "/tools/pdf-flatten?x=1", "es;q=0.5,ja", "/ja/tools/pdf-flatten?x=1"},
		{"unsupported locale replaced", "/xx/json-to-csv", "pt-BR", "/pt/json-to-csv"},
		{"region locale replaced", "/en-GB/csv-to-json", "", "/en/csv-to-json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := do(s, req)

			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/en/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`href="/en/json-to-csv"`,
		`href="/en/markdown-to-html"`,
		`href="/en/tools/pdf-flatten"`,
		`href="/de/"`,
		"No recent files yet.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %s", want)
		}
	}
}

func TestIndexPage_Localized(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/es/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<html lang="es">`) {
		t.Error("page is not marked as Spanish")
	}
	if !strings.Contains(body, "Conversores y herramientas de documentos") {
		t.Error("heading is not translated")
	}
}

func TestClientCookie(t *testing.T) {
	s := newTestServer(t)

	t.Run("issued when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != clientCookie {
			t.Fatalf("cookies = %v, want one %s", cookies, clientCookie)
		}
		if !cookies[0].HttpOnly {
			t.Error("client cookie should be HttpOnly")
		}
	})

	t.Run("kept when valid", func(t *testing.T) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if got := rec.Result().Cookies(); len(got) != 0 {
			t.Errorf("unexpected cookies %v", got)
		}
	})

	t.Run("replaced when malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.AddCookie(&http.Cookie{Name: clientCookie, Value: "not-a-uuid"})
		rec := do(s, req)

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Value == "not-a-uuid" {
			t.Errorf("cookies = %v, want a fresh client id", cookies)
		}
	})
}

func TestConvertPage(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/en/json-to-csv", http.StatusOK},
		{"/fr/yaml-to-xml", http.StatusOK},
		{"/en/json-to-json", http.StatusNotFound},
		{"/en/json-to-docx", http.StatusNotFound},
		{"/en/nothing", http.StatusNotFound},
		{"/en/tools/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestConvertForm(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{
		"input":     {`[{"id":1,"name":"Ada"},{"id":2,"name":"Linus"}]`},
		"file_name": {"people.json"},
	}
	req := httptest.NewRequest(http.MethodPost, "/en/json-to-csv", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "id,name\n1,Ada\n2,Linus\n") {
		t.Error("page does not show the converted output")
	}
	if !strings.Contains(rec.Body.String(), `download="people.csv"`) {
		t.Error("download link should be named after the input file")
	}

	recent := do(s, httptest.NewRequest(http.MethodGet, "/api/recent", nil))
	got := decode[struct{ Entries []history.Entry }](t, recent)
	if len(got.Entries) != 1 {
		t.Fatalf("recent entries = %d, want 1", len(got.Entries))
	}
	if got.Entries[0].FileName != "people.json" || got.Entries[0].Operation != "json-to-csv" {
		t.Errorf("recent entry = %+v", got.Entries[0])
	}
}

func TestConvertForm_Upload(t *testing.T) {
	s := newTestServer(t)

	req := multipartRequest(t, "/en/csv-to-yaml", "list.csv", []byte("a,b\n1,2\n"), nil)
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `download="list.yaml"`) {
		t.Error("download link should be named after the uploaded file")
	}
}

func TestConvertForm_Error(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"input": {"   "}}
	req := httptest.NewRequest(http.MethodPost, "/es/json-to-csv", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(s, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "La entrada está vacía.") {
		t.Error("error message is not translated")
	}
	if !strings.Contains(body, "CONV004") {
		t.Error("error code is missing")
	}
}

func TestAPIConvert(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, jsonRequest(t, http.MethodPost, "/api/convert", map[string]any{
		"input":  `[{"id":1,"name":"Ada"}]`,
		"source": "json",
		"target": "csv",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	res := decode[core.Result](t, rec)
	if !res.OK || res.Output != "id,name\n1,Ada\n" {
		t.Errorf("result = %+v", res)
	}
}

func TestAPIConvert_Failures(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		accept   string
		status   int
		code     string
		contains string
	}{
		{"malformed body", `{"input":`, "", http.StatusBadRequest, "REQ001", ""},
		{"unknown target", `{"input":"{}","source":"json","target":"docx"}`, "", http.StatusBadRequest, "CONV003", ""},
		{"identity pair", `{"input":"{}","source":"json","target":"json"}`, "", http.StatusBadRequest, "CONV002", ""},
		{"syntax error", `{"input":"{\"a\":","source":"json","target":"yaml"}`, "", http.StatusUnprocessableEntity, "CONV001", ""},
		{"empty input localized", `{"input":"","source":"json","target":"csv"}`, "es", http.StatusUnprocessableEntity, "CONV004", "La entrada está vacía."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := do(s, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			got := decode[struct {
				Code  string `json:"code"`
				Error string `json:"error"`
			}](t, rec)
			if got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
			if tt.contains != "" && got.Error != tt.contains {
				t.Errorf("error = %q, want %q", got.Error, tt.contains)
			}
		})
	}
}

func TestAPIConvertRaw(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/convert/csv-to-json?indent=4", strings.NewReader("id,name\n1,Ada\n"))
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "\n        \"name\": \"Ada\"") {
		t.Errorf("output not indented by 4:\n%s", rec.Body.String())
	}
	rows := decode[[]map[string]any](t, rec)
	if len(rows) != 1 || rows[0]["name"] != "Ada" {
		t.Errorf("rows = %v", rows)
	}

	bad := do(s, httptest.NewRequest(http.MethodPost, "/api/convert/json-to-nope", strings.NewReader("{}")))
	if bad.Code != http.StatusBadRequest {
		t.Errorf("unknown slug status = %d, want 400", bad.Code)
	}
}

func TestAPIDetect(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, jsonRequest(t, http.MethodPost, "/api/detect", map[string]string{
		"input": `<?xml version="1.0"?><people><person>Ada</person></people>`,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[detectResponse](t, rec); got.Format != "xml" || got.Label != "XML" {
		t.Errorf("detect = %+v", got)
	}

	raw := do(s, httptest.NewRequest(http.MethodPost, "/api/detect", strings.NewReader(`{"a": [1, 2]}`)))
	if got := decode[detectResponse](t, raw); got.Format != "json" {
		t.Errorf("raw detect = %+v", got)
	}

	empty := do(s, httptest.NewRequest(http.MethodPost, "/api/detect", strings.NewReader("")))
	if empty.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty input status = %d, want 422", empty.Code)
	}
}

func TestAPIFormatsAndConversions(t *testing.T) {
	s := newTestServer(t)

	formats := decode[[]formatJSON](t, do(s, httptest.NewRequest(http.MethodGet, "/api/formats?locale=es", nil)))
	if len(formats) != 7 {
		t.Fatalf("formats = %d, want 7", len(formats))
	}
	if formats[0].ID != "json" || !strings.Contains(formats[0].Description, "el idioma común") {
		t.Errorf("first format = %+v", formats[0])
	}

	all := decode[[]conversionJSON](t, do(s, httptest.NewRequest(http.MethodGet, "/api/conversions", nil)))
	if len(all) != 42 {
		t.Errorf("conversions = %d, want 42", len(all))
	}

	fromYAML := decode[[]conversionJSON](t, do(s, httptest.NewRequest(http.MethodGet, "/api/conversions?from=yml", nil)))
	if len(fromYAML) != 6 {
		t.Fatalf("conversions from yaml = %d, want 6", len(fromYAML))
	}
	for _, c := range fromYAML {
		if c.Source != "yaml" || c.Slug != "yaml-to-"+string(c.Target) {
			t.Errorf("conversion = %+v", c)
		}
	}

	bad := do(s, httptest.NewRequest(http.MethodGet, "/api/conversions?from=docx", nil))
	if bad.Code != http.StatusBadRequest {
		t.Errorf("unknown source status = %d, want 400", bad.Code)
	}

	tools := decode[[]toolJSON](t, do(s, httptest.NewRequest(http.MethodGet, "/api/tools", nil)))
	var slugs []string
	for _, tool := range tools {
		slugs = append(slugs, tool.Slug)
	}
	want := []string{core.ToolPDFDarkMode, core.ToolPDFFlatten, core.ToolPDFToText, core.ToolXLSXExport}
	if diff := cmp.Diff(want, slugs); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}
}

func TestAPITool_XLSXExport(t *testing.T) {
	s := newTestServer(t)
	data := workbook(t, "People", [][]any{{"id", "name"}, {1, "Ada"}, {2, "Linus"}})

	rec := do(s, multipartRequest(t, "/api/tools/xlsx-export", "staff.xlsx", data, map[string]string{"target": "csv"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "id,name\n1,Ada\n2,Linus\n" {
		t.Errorf("body = %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=staff-people.csv` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	req := multipartRequest(t, "/api/tools/xlsx-export", "staff.xlsx", data, map[string]string{"target": "yaml"})
	req.Header.Set("Accept", "application/json")
	envelope := decode[toolResponse](t, do(s, req))
	if envelope.FileName != "staff-people.yaml" || envelope.Size != len(envelope.Data) || envelope.Size == 0 {
		t.Errorf("envelope = %+v", envelope)
	}

	recent := decode[struct{ Entries []history.Entry }](t, do(s, httptest.NewRequest(http.MethodGet, "/api/recent", nil)))
	if len(recent.Entries) != 1 || recent.Entries[0].Operation != core.ToolXLSXExport {
		t.Errorf("recent = %+v, want one xlsx-export entry", recent.Entries)
	}
}

func TestAPITool_Failures(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"unknown tool", multipartRequest(t, "/api/tools/zip", "a.zip", []byte("x"), nil), http.StatusNotFound, "TOOL001"},
		{"no file", multipartRequest(t, "/api/tools/pdf-flatten", "", nil, nil), http.StatusBadRequest, "FILE004"},
		{"not a pdf", multipartRequest(t, "/api/tools/pdf-to-text", "a.pdf", []byte("hello"), nil), http.StatusUnprocessableEntity, "PDF001"},
		{"not a workbook", multipartRequest(t, "/api/tools/xlsx-export", "a.xlsx", []byte("hello"), nil), http.StatusUnprocessableEntity, "FILE002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, tt.req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.code {
				t.Errorf("code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestToolPage(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/en/tools/pdf-dark-mode", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="opacity"`) {
		t.Error("dark mode page should offer an opacity field")
	}

	failed := do(s, multipartRequest(t, "/en/tools/pdf-dark-mode", "", nil, nil))
	if failed.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", failed.Code)
	}
	if !strings.Contains(failed.Body.String(), "FILE004") {
		t.Error("tool page should show the error code")
	}
}

func TestClearRecent(t *testing.T) {
	s := newTestServer(t)

	do(s, jsonRequest(t, http.MethodPost, "/api/convert", map[string]any{
		"input": "a: 1", "source": "yaml", "target": "json", "fileName": "a.yaml",
	}))

	rec := do(s, httptest.NewRequest(http.MethodDelete, "/api/recent", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	got := decode[struct{ Entries []history.Entry }](t, do(s, httptest.NewRequest(http.MethodGet, "/api/recent", nil)))
	if len(got.Entries) != 0 {
		t.Errorf("entries after clear = %v", got.Entries)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[struct {
		Status string                `json:"status"`
		Jobs   core.JobLimiterStatus `json:"jobs"`
	}](t, rec)
	if got.Status != "ok" || got.Jobs.Capacity != 4 || got.Jobs.Available != 4 {
		t.Errorf("health = %+v", got)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"k1"}
	})

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "X-API-Key", "nope", http.StatusForbidden},
		{"header", "X-API-Key", "k1", http.StatusOK},
		{"bearer", "Authorization", "Bearer k1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if rec := do(s, req); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	// Pages stay public.
	if rec := do(s, httptest.NewRequest(http.MethodGet, "/en/", nil)); rec.Code != http.StatusOK {
		t.Errorf("index status = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 1
		c.Rate.Burst = 1
	})

	first := do(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.Code)
	}

	second := do(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if got := decode[ErrorResponse](t, second); got.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", got.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("%s header missing", h)
		}
	}

	noCSP := newTestServer(t, func(c *config.Config) { c.Security.EnableCSP = false })
	if got := do(noCSP, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("CSP set while disabled: %q", got)
	}
}

func TestLooksLikeLocale(t *testing.T) {
	tests := map[string]bool{
		"en":          true,
		"pt-BR":       true,
		"xx":          true,
		"tools":       false,
		"json-to-csv": false,
		"e1":          false,
		"en-":         false,
		"":            false,
	}
	for seg, want := range tests {
		if got := looksLikeLocale(seg); got != want {
			t.Errorf("looksLikeLocale(%q) = %v, want %v", seg, got, want)
		}
	}
}

func TestStatusForCode(t *testing.T) {
	tests := map[string]int{
		"":        http.StatusOK,
		"CONV001": http.StatusUnprocessableEntity,
		"CONV003": http.StatusBadRequest,
		"FILE001": http.StatusRequestEntityTooLarge,
		"JOB001":  http.StatusServiceUnavailable,
		"RATE001": http.StatusTooManyRequests,
		"ERR000":  http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusForCode(code); got != want {
			t.Errorf("statusForCode(%q) = %d, want %d", code, got, want)
		}
	}
}
