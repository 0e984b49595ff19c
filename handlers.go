package main

// handlers module holds all HTTP handlers functions
//
// Copyright (c) 2024 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// HTTPError represents HTTP error record
type HTTPError struct {
	Method         string `json:"method"`           // HTTP method
	HTTPCode       int    `json:"http_code"`        // HTTP error code
	Code           int    `json:"code"`             // server status code
	Timestamp      string `json:"timestamp"`        // timestamp of the error
	Path           string `json:"path"`             // URL path
	UserAgent      string `json:"user_agent"`       // http user-agent field
	XForwardedHost string `json:"x_forwarded_host"` // http.Request X-Forwarded-Host
	XForwardedFor  string `json:"x_forwarded_for"`  // http.Request X-Forwarded-For
	RemoteAddr     string `json:"remote_addr"`      // http.Request remote address
	Reason         string `json:"reason"`           // error message
}

// helper function to provide standard JSON HTTP error reply
func httpError(w http.ResponseWriter, r *http.Request, code int, err error, httpCode int) {
	hrec := HTTPError{
		Method:         r.Method,
		HTTPCode:       httpCode,
		Code:           code,
		Timestamp:      time.Now().String(),
		Path:           r.RequestURI,
		UserAgent:      r.Header.Get("User-agent"),
		XForwardedHost: r.Header.Get("X-Forwarded-Host"),
		XForwardedFor:  r.Header.Get("X-Forwarded-For"),
		RemoteAddr:     r.RemoteAddr,
		Reason:         errorMessage(code),
	}
	if err != nil {
		hrec.Reason = fmt.Sprintf("%s, error %v", errorMessage(code), err)
	}
	if Config.Verbose > 0 {
		log.Printf("HTTPError: %+v", hrec)
	}
	data, merr := json.MarshalIndent(hrec, "", "   ")
	if merr != nil {
		data = []byte(merr.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	w.Write(data)
}

// helper function to write JSON data record
func httpJSON(w http.ResponseWriter, r *http.Request, data interface{}) {
	body, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		httpError(w, r, JsonMarshal, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// helper function to check if HTTP request contains form-data
func formData(r *http.Request) bool {
	for key, values := range r.Header {
		if strings.ToLower(key) == "content-type" {
			for _, v := range values {
				if strings.Contains(strings.ToLower(v), "form-data") {
					return true
				}
			}
		}
	}
	return false
}

// helper function to extract raw image bytes from HTTP request, either
// from multipart form field 'image' or from the request body
func requestImage(r *http.Request) ([]byte, error) {
	if formData(r) {
		if err := r.ParseMultipartForm(32 << 20); err != nil { // maxMemory
			return nil, err
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.New("no image file provided, use 'image' form field")
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}

// helper function to map core errors to HTTP status codes
func httpCode(code int) int {
	switch code {
	case InvalidInputError, InvalidImageError, BadRequest:
		return http.StatusBadRequest
	case CheckpointNotFound:
		return http.StatusServiceUnavailable
	case DatabaseError, CheckpointIncompatible, DatasetError:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// PredictHandler handles image classification requests, inference
// errors are reported per-request and do not affect the process state
func PredictHandler(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		httpError(w, r, CheckpointNotFound, ErrCheckpointNotFound, httpCode(CheckpointNotFound))
		return
	}
	data, err := requestImage(r)
	if err != nil {
		httpError(w, r, BadRequest, err, http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		httpError(w, r, BadRequest, errors.New("empty image payload"), http.StatusBadRequest)
		return
	}
	result, err := predictor.Classify(data)
	if err != nil {
		code := errorCode(err)
		httpError(w, r, code, err, httpCode(code))
		return
	}
	if Config.Verbose > 0 {
		log.Printf("predict %s confidence=%.4f", result.Label, result.Confidence)
	}
	httpJSON(w, r, result)
}

// ModelHandler provides meta-data of the currently served checkpoint
func ModelHandler(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		httpError(w, r, CheckpointNotFound, ErrCheckpointNotFound, httpCode(CheckpointNotFound))
		return
	}
	httpJSON(w, r, predictor.Meta)
}

// RunsHandler provides training run history from MetaData database
func RunsHandler(w http.ResponseWriter, r *http.Request) {
	if Config.DBURI == "" {
		httpError(w, r, DatabaseError, errors.New("no MetaData database is configured"), http.StatusServiceUnavailable)
		return
	}
	records, err := runHistory.Records()
	if err != nil {
		httpError(w, r, DatabaseError, err, http.StatusInternalServerError)
		return
	}
	httpJSON(w, r, records)
}

// StatusHandler handles status of imgqc server
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "healthy",
		"server": info(),
	}
	if predictor != nil {
		status["checkpoint_epoch"] = predictor.Meta.Epoch
		status["checkpoint_accuracy"] = predictor.Meta.Accuracy
	}
	httpJSON(w, r, status)
}

// DocsHandler serves markdown documentation of imgqc server
func DocsHandler(w http.ResponseWriter, r *http.Request) {
	fname := fmt.Sprintf("%s/md/docs.md", Config.StaticDir)
	content, err := mdToHTML(fname)
	if err != nil {
		httpError(w, r, FileIOError, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(content))
}

// FaviconHandler serves favicon
func FaviconHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, fmt.Sprintf("%s/images/favicon.ico", Config.StaticDir))
}
