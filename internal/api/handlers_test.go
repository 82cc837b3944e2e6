package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cognicore/sentimap/pkg/sentimap"
	"github.com/cognicore/sentimap/pkg/sentimap/jobs"
	"github.com/cognicore/sentimap/pkg/sentimap/store/memstore"
)

const sampleCSV = "Cleaned Review,Product Name,Brand,Date\n" +
	"The camera is great but battery is bad,X,Acme,2024-01-05\n" +
	"Amazing screen,Y,Zen,2024-02-01\n"

func newServer(t *testing.T) (*httptest.Server, *jobs.Manager) {
	t.Helper()
	engine, err := sentimap.New(sentimap.Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	m := jobs.NewManager(memstore.New(), engine)
	srv := httptest.NewServer(NewRouter(NewHandler(m, 1<<20), nil))
	t.Cleanup(func() {
		m.Wait()
		srv.Close()
	})
	return srv, m
}

func upload(t *testing.T, url, field, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "reviews.csv")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	} else {
		mw.WriteField("note", "no file here")
	}
	mw.Close()

	resp, err := http.Post(url+"/analyze", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestAnalyzeProgressResult(t *testing.T) {
	srv, m := newServer(t)

	resp := upload(t, srv.URL, "file", sampleCSV)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var submitted struct {
		JobID string `json:"job_id"`
	}
	decode(t, resp, &submitted)
	if !jobs.Valid(submitted.JobID) {
		t.Fatalf("job id %q", submitted.JobID)
	}

	m.Wait()

	resp, err := http.Get(srv.URL + "/progress/" + submitted.JobID)
	if err != nil {
		t.Fatal(err)
	}
	var progress struct {
		Progress int `json:"progress"`
	}
	decode(t, resp, &progress)
	if progress.Progress != 100 {
		t.Errorf("progress = %d, want 100", progress.Progress)
	}

	resp, err = http.Get(srv.URL + "/result/" + submitted.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result status = %d", resp.StatusCode)
	}
	var result map[string][]map[string]any
	decode(t, resp, &result)
	if len(result) != 9 {
		t.Errorf("Expected 9 result keys, got %d", len(result))
	}
	if got := len(result["overall_summary"]); got != 4 {
		t.Errorf("overall_summary has %d records, want 4", got)
	}
	if got := len(result["sentiment_by_brand"]); got != 2 {
		t.Errorf("sentiment_by_brand has %d records, want 2", got)
	}
}

func TestAnalyzeRejections(t *testing.T) {
	srv, _ := newServer(t)

	tests := []struct {
		name    string
		field   string
		content string
		want    string
	}{
		{"no file", "", "", "No file uploaded"},
		{"wrong field", "upload", sampleCSV, "No file uploaded"},
		{"missing column", "file", "Review\nnice\n", "CSV file is missing required data"},
		{"empty", "file", "Cleaned Review\n", "CSV file is missing required data"},
		{"no header", "file", "", "Failed to read CSV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, srv.URL, tt.field, tt.content)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			decode(t, resp, &body)
			if !strings.HasPrefix(body["error"], tt.want) {
				t.Errorf("error = %q, want prefix %q", body["error"], tt.want)
			}
		})
	}
}

func TestAnalyzeNotMultipart(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/analyze", "text/csv", strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownJob(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/progress/missing")
	if err != nil {
		t.Fatal(err)
	}
	var progress map[string]int
	decode(t, resp, &progress)
	if progress["progress"] != 0 {
		t.Errorf("unknown progress = %d, want 0", progress["progress"])
	}

	resp, err = http.Get(srv.URL + "/result/missing")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["error"] != "Result not ready" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestHealthAndCORS(t *testing.T) {
	srv, _ := newServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("CORS header missing")
	}
}

func TestUploadTooLarge(t *testing.T) {
	engine, err := sentimap.New(sentimap.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := jobs.NewManager(memstore.New(), engine)
	srv := httptest.NewServer(NewRouter(NewHandler(m, 64), nil))
	defer srv.Close()

	resp := upload(t, srv.URL, "file", sampleCSV+strings.Repeat("Great camera,X,Acme,2024-01-01\n", 20))
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}
