package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	apihttp "github.com/mind-engage/mindengage-sheetgrader/internal/api/http"
	"github.com/mind-engage/mindengage-sheetgrader/internal/exam"
	"github.com/mind-engage/mindengage-sheetgrader/internal/extract"
	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
	"github.com/mind-engage/mindengage-sheetgrader/internal/storage"
	syncx "github.com/mind-engage/mindengage-sheetgrader/internal/sync"
)

type fakeExtractor struct {
	sheet exam.StudentSheet
	key   exam.AnswerKey
	err   error
}

func (f *fakeExtractor) Name() string { return "fake" }
func (f *fakeExtractor) ExtractKey(context.Context, extract.Image) (exam.AnswerKey, error) {
	return f.key, f.err
}
func (f *fakeExtractor) ExtractSheet(context.Context, extract.Image) (exam.StudentSheet, error) {
	return f.sheet, f.err
}

const keyJSON = `{"id":"phy-1","title":"Physics","answers":[
 {"question_number":1,"correct_options":["B","D"],"marks_text":"Mark: 2"},
 {"question_number":2,"correct_option":"C","marks":3},
 {"question_number":3,"correct_options":["A","D","E"],"marks_text":"Mark: a=2, d=3, e=1"}]}`

const sheetJSON = `{"roll_number":"48","section":"A","answers":[
 {"question_number":1,"selected_options":["b","d"]},
 {"question_number":2,"selected_options":["A","C"]},
 {"question_number":3,"selected_options":["(d)"]}]}`

func newRouter(t *testing.T, ext extract.Extractor) (http.Handler, *exam.Service, storage.BlobStore) {
	t.Helper()
	svc := exam.NewService(exam.NewInMemoryStore(), nil, nil)
	bs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	r := chi.NewRouter()
	r.Post("/keys", apihttp.CreateKeyHandler(svc))
	r.Get("/keys", apihttp.ListKeysHandler(svc))
	r.Post("/keys/scan", apihttp.ScanKeyHandler(svc, ext))
	r.Get("/keys/{keyID}", apihttp.GetKeyHandler(svc))
	r.Post("/keys/{keyID}/evaluations", apihttp.GradeSheetHandler(svc))
	r.Get("/keys/{keyID}/evaluations", apihttp.ListKeyEvaluationsHandler(svc))
	r.Post("/keys/{keyID}/scans", apihttp.ScanSheetHandler(svc, ext, bs))
	r.Get("/evaluations/{evaluationID}", apihttp.GetEvaluationHandler(svc))
	r.Get("/evaluations/{evaluationID}/report", apihttp.EvaluationReportHandler(svc))
	r.Post("/evaluate", apihttp.PreviewHandler(svc))
	r.Route("/scans", func(sr chi.Router) { apihttp.MountScans(sr, bs) })
	return r, svc, bs
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, fields map[string]string, data []byte) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", "sheet.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	return mw.FormDataContentType(), &buf
}

func TestKeyAndEvaluationFlow(t *testing.T) {
	h, _, _ := newRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/keys", "application/json", strings.NewReader(keyJSON))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create key: %d %s", rec.Code, rec.Body)
	}
	var k exam.AnswerKey
	if err := json.Unmarshal(rec.Body.Bytes(), &k); err != nil {
		t.Fatalf("decode key: %v", err)
	}
	if k.ID != "phy-1" || len(k.Questions) != 3 || k.CreatedAt == 0 {
		t.Fatalf("key = %+v", k)
	}

	rec = do(t, h, http.MethodGet, "/keys", "", nil)
	var sums []exam.KeySummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sums); err != nil || len(sums) != 1 {
		t.Fatalf("list keys: %v %s", err, rec.Body)
	}
	if sums[0].MaxScore != 11 || sums[0].Questions != 3 {
		t.Fatalf("summary = %+v", sums[0])
	}

	rec = do(t, h, http.MethodPost, "/keys/phy-1/evaluations", "application/json", strings.NewReader(sheetJSON))
	if rec.Code != http.StatusCreated {
		t.Fatalf("grade: %d %s", rec.Code, rec.Body)
	}
	var ev exam.Evaluation
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode evaluation: %v", err)
	}
	// q1 full 2, q2 wrong option 0, q3 weight of D = 3
	if ev.Score != 5 || ev.MaxScore != 11 || ev.RollNumber != "48" {
		t.Fatalf("evaluation = %+v", ev)
	}
	if ev.Result.Details[2].HasWrongOptions != true {
		t.Fatalf("q2 = %+v", ev.Result.Details[2])
	}

	rec = do(t, h, http.MethodGet, "/evaluations/"+ev.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get evaluation: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/keys/phy-1/evaluations?roll_number=48", "", nil)
	var evs []exam.Evaluation
	if err := json.Unmarshal(rec.Body.Bytes(), &evs); err != nil || len(evs) != 1 {
		t.Fatalf("list evaluations: %v %s", err, rec.Body)
	}
	rec = do(t, h, http.MethodGet, "/keys/phy-1/evaluations?roll_number=99", "", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &evs); err != nil || len(evs) != 0 {
		t.Fatalf("filtered list: %v %s", err, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/evaluations/"+ev.ID+"/report", "", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("report: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "weightage") {
		t.Fatalf("report body:\n%s", rec.Body)
	}
}

func TestHandlerErrors(t *testing.T) {
	h, _, _ := newRouter(t, nil)

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"malformed key", http.MethodPost, "/keys", `{"answers":`, http.StatusBadRequest},
		{"empty key", http.MethodPost, "/keys", `{"answers":[]}`, http.StatusBadRequest},
		{"bad question number", http.MethodPost, "/keys", `[{"question_number":0,"correct_options":["A"]}]`, http.StatusBadRequest},
		{"unknown key", http.MethodGet, "/keys/nope", "", http.StatusNotFound},
		{"grade unknown key", http.MethodPost, "/keys/nope/evaluations", sheetJSON, http.StatusNotFound},
		{"list unknown key", http.MethodGet, "/keys/nope/evaluations", "", http.StatusNotFound},
		{"unknown evaluation", http.MethodGet, "/evaluations/nope", "", http.StatusNotFound},
		{"missing scan", http.MethodGet, "/scans/k/x.png", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			if rec := do(t, h, tc.method, tc.path, "application/json", body); rec.Code != tc.want {
				t.Fatalf("status = %d; want %d (%s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	h, svc, _ := newRouter(t, nil)
	body := `{"key":` + keyJSON + `,"sheet":` + sheetJSON + `}`
	rec := do(t, h, http.MethodPost, "/evaluate", "application/json", strings.NewReader(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: %d %s", rec.Code, rec.Body)
	}
	var out struct {
		RollNumber string              `json:"roll_number"`
		Result     grading.SheetResult `json:"result"`
		Percentage float64             `json:"percentage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Result.Total != 5 || out.Result.MaxTotal != 11 || out.RollNumber != "48" {
		t.Fatalf("preview = %+v", out)
	}
	// nothing stored
	if keys, _ := svc.Store().ListKeys(context.Background(), exam.ListOpts{}); len(keys) != 0 {
		t.Fatalf("preview stored %d keys", len(keys))
	}

	rec = do(t, h, http.MethodPost, "/evaluate", "application/json", strings.NewReader(`{"key":`+keyJSON+`}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing sheet: %d", rec.Code)
	}
}

func TestScanSheet(t *testing.T) {
	ext := &fakeExtractor{sheet: exam.StudentSheet{
		RollNumber: "from-ocr",
		Answers:    []grading.Response{{QuestionNumber: 1, SelectedOptions: []string{"B", "D"}}},
	}}
	h, _, bs := newRouter(t, ext)
	if rec := do(t, h, http.MethodPost, "/keys", "application/json", strings.NewReader(keyJSON)); rec.Code != http.StatusCreated {
		t.Fatalf("create key: %d", rec.Code)
	}

	png := []byte("\x89PNG\r\n\x1a\nscan")
	ct, body := upload(t, map[string]string{"roll_number": "17"}, png)
	rec := do(t, h, http.MethodPost, "/keys/phy-1/scans", ct, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("scan: %d %s", rec.Code, rec.Body)
	}
	var ev exam.Evaluation
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.RollNumber != "17" || ev.Score != 2 || !strings.HasPrefix(ev.ScanKey, "scans/phy-1/") {
		t.Fatalf("evaluation = %+v", ev)
	}
	rc, err := bs.Get(ev.ScanKey)
	if err != nil {
		t.Fatalf("scan not stored: %v", err)
	}
	rc.Close()

	rec = do(t, h, http.MethodGet, "/"+ev.ScanKey, "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), png) {
		t.Fatalf("serve scan: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	ext.err = errors.New("engine down")
	ct, body = upload(t, nil, png)
	if rec := do(t, h, http.MethodPost, "/keys/phy-1/scans", ct, body); rec.Code != http.StatusBadGateway {
		t.Fatalf("engine failure: %d", rec.Code)
	}
	ext.err = grading.ErrInvalidInput
	ct, body = upload(t, nil, png)
	if rec := do(t, h, http.MethodPost, "/keys/phy-1/scans", ct, body); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unusable output: %d", rec.Code)
	}
}

func TestScanKey(t *testing.T) {
	ext := &fakeExtractor{key: exam.AnswerKey{Questions: []grading.KeyItem{
		{QuestionNumber: 1, CorrectOptions: []string{"A"}, MarksText: "Mark: 4"},
	}}}
	h, _, _ := newRouter(t, ext)
	ct, body := upload(t, map[string]string{"title": "Chemistry"}, []byte("img"))
	rec := do(t, h, http.MethodPost, "/keys/scan", ct, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("scan key: %d %s", rec.Code, rec.Body)
	}
	var k exam.AnswerKey
	if err := json.Unmarshal(rec.Body.Bytes(), &k); err != nil || k.Title != "Chemistry" || k.ID == "" {
		t.Fatalf("key = %+v (%v)", k, err)
	}
}

func TestScanWithoutExtractor(t *testing.T) {
	h, _, _ := newRouter(t, nil)
	ct, body := upload(t, nil, []byte("img"))
	if rec := do(t, h, http.MethodPost, "/keys/scan", ct, body); rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListEvents(t *testing.T) {
	events := syncx.NewMemoryLog()
	svc := exam.NewService(exam.NewInMemoryStore(), events, nil)
	r := chi.NewRouter()
	r.Post("/keys", apihttp.CreateKeyHandler(svc))
	r.Post("/keys/{keyID}/evaluations", apihttp.GradeSheetHandler(svc))
	r.Get("/events", apihttp.ListEventsHandler(events))

	do(t, r, http.MethodPost, "/keys", "application/json", strings.NewReader(keyJSON))
	do(t, r, http.MethodPost, "/keys/phy-1/evaluations", "application/json", strings.NewReader(sheetJSON))

	var got []syncx.Event
	rec := do(t, r, http.MethodGet, "/events", "", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || len(got) != 2 {
		t.Fatalf("events: %v %s", err, rec.Body)
	}
	if got[0].Type != syncx.TypeKeyStored || got[1].Type != syncx.TypeSheetEvaluated {
		t.Fatalf("types = %s, %s", got[0].Type, got[1].Type)
	}

	rec = do(t, r, http.MethodGet, "/events?after="+strconv.FormatInt(got[0].Seq, 10), "", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || len(got) != 1 {
		t.Fatalf("events after first: %v %s", err, rec.Body)
	}
}

func TestScanSheetFailureRemovesScan(t *testing.T) {
	dir := t.TempDir()
	bs, err := storage.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ext := &fakeExtractor{}
	svc := exam.NewService(exam.NewInMemoryStore(), nil, nil)
	r := chi.NewRouter()
	r.Post("/keys", apihttp.CreateKeyHandler(svc))
	r.Post("/keys/{keyID}/scans", apihttp.ScanSheetHandler(svc, ext, bs))
	if rec := do(t, r, http.MethodPost, "/keys", "application/json", strings.NewReader(keyJSON)); rec.Code != http.StatusCreated {
		t.Fatalf("create key: %d", rec.Code)
	}

	cases := []struct {
		name  string
		sheet exam.StudentSheet
		err   error
		want  int
	}{
		{"grading rejects sheet", exam.StudentSheet{Answers: []grading.Response{{QuestionNumber: 0, SelectedOptions: []string{"A"}}}}, nil, http.StatusBadRequest},
		{"extraction fails", exam.StudentSheet{}, errors.New("engine down"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ext.sheet, ext.err = tc.sheet, tc.err
			ct, body := upload(t, nil, []byte("\x89PNG\r\n\x1a\nscan"))
			if rec := do(t, r, http.MethodPost, "/keys/phy-1/scans", ct, body); rec.Code != tc.want {
				t.Fatalf("status = %d; want %d (%s)", rec.Code, tc.want, rec.Body)
			}
			left, _ := os.ReadDir(filepath.Join(dir, "scans", "phy-1"))
			if len(left) != 0 {
				t.Fatalf("scan blobs left behind: %d", len(left))
			}
		})
	}
}

func TestCreateKeyRejectsTakenID(t *testing.T) {
	h, _, _ := newRouter(t, nil)
	if rec := do(t, h, http.MethodPost, "/keys", "application/json", strings.NewReader(keyJSON)); rec.Code != http.StatusCreated {
		t.Fatalf("create key: %d", rec.Code)
	}
	other := `{"id":"phy-1","title":"Other","answers":[{"question_number":1,"correct_options":["A"]}]}`
	if rec := do(t, h, http.MethodPost, "/keys", "application/json", strings.NewReader(other)); rec.Code != http.StatusConflict {
		t.Fatalf("re-post status = %d; want 409", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/keys/phy-1", "", nil)
	var k exam.AnswerKey
	if err := json.Unmarshal(rec.Body.Bytes(), &k); err != nil || k.Title != "Physics" || len(k.Questions) != 3 {
		t.Fatalf("key after conflict = %+v (%v)", k, err)
	}
}
