// Copyright 2025 VidSense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the error taxonomy for the analysis pipeline.
// Every failure that crosses a package boundary is one of these typed
// values, so the HTTP layer can map errors to status codes without string
// matching and the coordinator can distinguish a hard stage failure from a
// validation problem.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure in API responses.
type ErrorCode string

const (
	CodeValidation  ErrorCode = "Validation Error"
	CodeInvalidURL  ErrorCode = "Invalid URL"
	CodeStageFailed ErrorCode = "Stage Failure"
	CodeNotFound    ErrorCode = "Not Found"
	CodePersistence ErrorCode = "Persistence Error"
	CodeInternal    ErrorCode = "Internal Error"
)

// Stage names one step of the analysis pipeline.
type Stage string

const (
	StageTranscript Stage = "transcript"
	StageSummary    Stage = "summary"
	StageSentiment  Stage = "sentiment"
	StageEmbeddings Stage = "embeddings"
	StageSearch     Stage = "search"
)

// AppError is a structured error with an HTTP status, an error code, and an
// optional diagnostic excerpt (typically the tail of a subprocess's stderr).
type AppError struct {
	Code    ErrorCode
	Status  int
	Stage   Stage // Set only for stage failures.
	Message string
	Details string
	cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewValidation creates a 400 error for malformed request parameters.
func NewValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg}
}

// NewInvalidURL creates a 400 error for URLs that do not yield a video identifier.
func NewInvalidURL(msg string) *AppError {
	return &AppError{Code: CodeInvalidURL, Status: http.StatusBadRequest, Message: msg}
}

// NewNotFound creates a 404 error for a video identifier with no stored analysis.
func NewNotFound(videoID string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("no analysis found for video %s", videoID),
	}
}

// NewStageFailure creates an error for a pipeline stage that reported failure
// or timed out. Transcript extraction failures are the caller's problem (the
// video is private or has no captions) and map to 400; later stages indicate
// a fault on our side and map to 500.
func NewStageFailure(stage Stage, msg string, details string, cause error) *AppError {
	status := http.StatusInternalServerError
	if stage == StageTranscript {
		status = http.StatusBadRequest
	}
	return &AppError{
		Code:    CodeStageFailed,
		Status:  status,
		Stage:   stage,
		Message: msg,
		Details: details,
		cause:   cause,
	}
}

// NewPersistence creates a 500 error for a store write that failed.
func NewPersistence(msg string, cause error) *AppError {
	return &AppError{
		Code:    CodePersistence,
		Status:  http.StatusInternalServerError,
		Message: msg,
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected failures.
func NewInternal(msg string, cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		cause:   cause,
	}
}
