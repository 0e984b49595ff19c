package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestPredictHandlerNoCheckpoint checks the predict endpoint reports
// service unavailable when no checkpoint is loaded
func TestPredictHandlerNoCheckpoint(t *testing.T) {
	parseConfig("")
	predictor = nil
	req := httptest.NewRequest("POST", "/predict", bytes.NewReader(testPNG(10, 6)))
	rec := httptest.NewRecorder()
	PredictHandler(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("wrong HTTP code %d", rec.Code)
	}
	var hrec HTTPError
	if err := json.Unmarshal(rec.Body.Bytes(), &hrec); err != nil {
		t.Fatalf("unable to parse error record, error %v", err)
	}
	if hrec.Code != CheckpointNotFound {
		t.Errorf("wrong server code %d", hrec.Code)
	}
}

// TestPredictHandler classifies a PNG payload end-to-end through the
// HTTP layer
func TestPredictHandler(t *testing.T) {
	parseConfig("")
	path := saveTestCheckpoint(t, 8, 3)
	var err error
	predictor, err = NewPredictor(path, 8, 3, ResizeStretch)
	if err != nil {
		t.Fatalf("unable to load checkpoint, error %v", err)
	}
	defer func() { predictor = nil }()

	req := httptest.NewRequest("POST", "/predict", bytes.NewReader(testPNG(10, 6)))
	rec := httptest.NewRecorder()
	PredictHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("wrong HTTP code %d, body %s", rec.Code, rec.Body.String())
	}
	var result PredictionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unable to parse prediction, error %v", err)
	}
	if !InList(result.Label, Classes) {
		t.Errorf("unknown label %s", result.Label)
	}
	sum := 0.0
	for _, p := range result.Probs {
		sum += p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("probabilities sum to %v", sum)
	}
}

// TestPredictHandlerFormData classifies an image uploaded through a
// multipart form
func TestPredictHandlerFormData(t *testing.T) {
	parseConfig("")
	path := saveTestCheckpoint(t, 8, 3)
	var err error
	predictor, err = NewPredictor(path, 8, 3, ResizeStretch)
	if err != nil {
		t.Fatalf("unable to load checkpoint, error %v", err)
	}
	defer func() { predictor = nil }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "test.png")
	if err != nil {
		t.Fatalf("unable to create form file, error %v", err)
	}
	part.Write(testPNG(10, 6))
	writer.Close()

	req := httptest.NewRequest("POST", "/predict/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	PredictHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("wrong HTTP code %d, body %s", rec.Code, rec.Body.String())
	}
}

// TestPredictHandlerBadPayload
func TestPredictHandlerBadPayload(t *testing.T) {
	parseConfig("")
	path := saveTestCheckpoint(t, 8, 1)
	var err error
	predictor, err = NewPredictor(path, 8, 1, ResizeStretch)
	if err != nil {
		t.Fatalf("unable to load checkpoint, error %v", err)
	}
	defer func() { predictor = nil }()

	// empty payload
	req := httptest.NewRequest("POST", "/predict", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	PredictHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong HTTP code %d for empty payload", rec.Code)
	}

	// undecodable payload
	req = httptest.NewRequest("POST", "/predict", bytes.NewReader([]byte("not an image")))
	rec = httptest.NewRecorder()
	PredictHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong HTTP code %d for bad payload", rec.Code)
	}
	var hrec HTTPError
	if err := json.Unmarshal(rec.Body.Bytes(), &hrec); err != nil {
		t.Fatalf("unable to parse error record, error %v", err)
	}
	if hrec.Code != InvalidImageError {
		t.Errorf("wrong server code %d", hrec.Code)
	}
}

// TestModelHandler
func TestModelHandler(t *testing.T) {
	parseConfig("")
	path := saveTestCheckpoint(t, 8, 1)
	var err error
	predictor, err = NewPredictor(path, 8, 1, ResizeStretch)
	if err != nil {
		t.Fatalf("unable to load checkpoint, error %v", err)
	}
	defer func() { predictor = nil }()

	req := httptest.NewRequest("GET", "/model", nil)
	rec := httptest.NewRecorder()
	ModelHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("wrong HTTP code %d", rec.Code)
	}
	var meta CheckpointMeta
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("unable to parse meta-data, error %v", err)
	}
	if meta.ImageSize != 8 || meta.ImageChannels != 1 {
		t.Errorf("wrong meta-data %+v", meta)
	}
}

// TestStatusHandler
func TestStatusHandler(t *testing.T) {
	parseConfig("")
	predictor = nil
	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	StatusHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("wrong HTTP code %d", rec.Code)
	}
	var status map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unable to parse status, error %v", err)
	}
	if status["status"] != "healthy" {
		t.Errorf("wrong status %v", status["status"])
	}
}

// TestRunsHandlerNoDatabase
func TestRunsHandlerNoDatabase(t *testing.T) {
	parseConfig("")
	Config.DBURI = ""
	req := httptest.NewRequest("GET", "/runs", nil)
	rec := httptest.NewRecorder()
	RunsHandler(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("wrong HTTP code %d", rec.Code)
	}
}
