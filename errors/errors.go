// Copyright 2023 The occi-os Authors
//
//    Licensed under the Apache License, Version 2.0 (the "License"); you may
//    not use this file except in compliance with the License. You may obtain
//    a copy of the License at
//
//         http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
//    WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
//    License for the specific language governing permissions and limitations
//    under the License.

package errors

import (
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when the compute provider does not know
	// about the requested instance.
	ErrNotFound = NewNotFoundError("not found")
	// ErrValidation is returned when a request is malformed or was
	// rejected by the compute provider.
	ErrValidation = NewValidationError("invalid request")
	// ErrTimeout is returned when waiting on a provider side operation
	// exceeded its deadline.
	ErrTimeout = NewTimeoutError("timed out")
)

type baseError struct {
	msg string
}

func (b *baseError) Error() string {
	return b.msg
}

// NewNotFoundError returns a new NotFoundError
func NewNotFoundError(msg string, a ...interface{}) error {
	return &NotFoundError{
		baseError{
			msg: fmt.Sprintf(msg, a...),
		},
	}
}

// NotFoundError is returned when a resource is not found
type NotFoundError struct {
	baseError
}

// NewValidationError returns a new ValidationError
func NewValidationError(msg string, a ...interface{}) error {
	return &ValidationError{
		baseError{
			msg: fmt.Sprintf(msg, a...),
		},
	}
}

// ValidationError is returned when a request is malformed or was rejected
// by the compute provider for reasons attributable to the request itself.
type ValidationError struct {
	baseError
}

// NewTimeoutError returns a new TimeoutError
func NewTimeoutError(msg string, a ...interface{}) error {
	return &TimeoutError{
		baseError{
			msg: fmt.Sprintf(msg, a...),
		},
	}
}

// TimeoutError is returned when waiting on a provider operation exceeded
// the configured deadline.
type TimeoutError struct {
	baseError
}

// NewHTTPError returns a new HTTPError carrying an explicit status code.
func NewHTTPError(status int, msg string, a ...interface{}) error {
	return &HTTPError{
		baseError: baseError{
			msg: fmt.Sprintf(msg, a...),
		},
		status: status,
	}
}

// HTTPError is a generic server side fault. The status code is the one
// the protocol layer should return to the OCCI client.
type HTTPError struct {
	baseError

	status int
}

// StatusCode returns the HTTP status code associated with this error.
func (h *HTTPError) StatusCode() int {
	if h.status == 0 {
		return http.StatusInternalServerError
	}
	return h.status
}
