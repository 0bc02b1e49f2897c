// Copyright 2019 Ross Light
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
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"golang.org/x/xerrors"
)

// ErrNotFound matches any *NotFoundError with xerrors.Is.
var ErrNotFound = xerrors.New("document not found")

// Error states reported to GraphQL clients.
const (
	StateNotFound  = "NOT_FOUND"
	StateInvalidID = "INVALID_ID"
)

// NotFoundError is returned when an operation requires a document that does
// not exist.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no document with id %q", e.Collection, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// State returns StateNotFound.
func (e *NotFoundError) State() string {
	return StateNotFound
}

// InvalidIDError is returned when an identifier is not in the format the
// backend assigns.
type InvalidIDError struct {
	Collection string
	ID         string
	Err        error
}

func (e *InvalidIDError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: invalid id %q", e.Collection, e.ID)
	}
	return fmt.Sprintf("%s: invalid id %q: %v", e.Collection, e.ID, e.Err)
}

// Unwrap returns e.Err.
func (e *InvalidIDError) Unwrap() error {
	return e.Err
}

// State returns StateInvalidID.
func (e *InvalidIDError) State() string {
	return StateInvalidID
}

// IsInvalidID reports whether err's chain contains an *InvalidIDError.
func IsInvalidID(err error) bool {
	var e *InvalidIDError
	return xerrors.As(err, &e)
}
