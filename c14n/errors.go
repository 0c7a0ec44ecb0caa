// Copyright 2015-2017 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package c14n

import (
	"fmt"
)

// ErrorCode identifies the failure class of a C14nError.
type ErrorCode string

// C14nError is an error raised while canonicalizing an RDF dataset
// or while parsing, serializing or loading the N-Quads around it.
type C14nError struct {
	Code    ErrorCode
	Details interface{}
}

const (
	UnknownFormat        ErrorCode = "unknown format"
	InvalidInput         ErrorCode = "invalid input"
	SyntaxError          ErrorCode = "syntax error"
	IOError              ErrorCode = "io error"
	LoadingDatasetFailed ErrorCode = "loading dataset failed"
	InternalError        ErrorCode = "internal error"
	UnknownError         ErrorCode = "unknown error"
)

func (e C14nError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%v: %v", e.Code, e.Details)
	}
	return fmt.Sprintf("%v", e.Code)
}

// Unwrap returns the underlying error if Details carries one.
func (e C14nError) Unwrap() error {
	if err, isError := e.Details.(error); isError {
		return err
	}
	return nil
}

// NewC14nError creates a new instance of C14nError.
func NewC14nError(code ErrorCode, details interface{}) *C14nError {
	return &C14nError{Code: code, Details: details}
}
