package main

import (
	"errors"
	"fmt"
)

// server status codes
const (
	GenericError           = iota + 100 // generic imgqc error
	DatabaseError                       // 101 database error
	BadRequest                          // 102 bad request
	JsonMarshal                         // 103 json.Marshal error
	FileIOError                         // 104 file IO error
	InvalidInputError                   // 105 malformed image input
	InvalidImageError                   // 106 undecodable image
	CheckpointNotFound                  // 107 missing model checkpoint
	CheckpointIncompatible              // 108 incompatible model checkpoint
	DatasetError                        // 109 dataset access error
)

// sentinel errors used by the core modules, handlers map them to status codes
var (
	ErrInvalidInput           = errors.New("invalid input dimensions")
	ErrInvalidImage           = errors.New("invalid image")
	ErrCheckpointNotFound     = errors.New("checkpoint not found")
	ErrCheckpointIncompatible = errors.New("incompatible checkpoint")
	ErrDatasetUnavailable     = errors.New("dataset unavailable")
)

// helper function to return human error message for given imgqc error code
func errorMessage(code int) string {
	if code == 0 {
		return ""
	} else if code == 101 {
		return "database error"
	} else if code == 102 {
		return "bad request"
	} else if code == 103 {
		return "JSON marshal error"
	} else if code == 104 {
		return "file IO error"
	} else if code == 105 {
		return "invalid input"
	} else if code == 106 {
		return "invalid image"
	} else if code == 107 {
		return "checkpoint not found"
	} else if code == 108 {
		return "incompatible checkpoint"
	} else if code == 109 {
		return "dataset unavailable"
	} else {
		return fmt.Sprintf("Not Implemented error for code %d", code)
	}
}

// helper function to translate core errors into server status codes
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return InvalidInputError
	case errors.Is(err, ErrInvalidImage):
		return InvalidImageError
	case errors.Is(err, ErrCheckpointNotFound):
		return CheckpointNotFound
	case errors.Is(err, ErrCheckpointIncompatible):
		return CheckpointIncompatible
	case errors.Is(err, ErrDatasetUnavailable):
		return DatasetError
	}
	return GenericError
}
