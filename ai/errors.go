// Copyright 2025 Perseid Labs
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


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrPermanentInput indicates the input can never be analyzed
	// successfully (corrupt or unreadable content). Jobs failing with
	// this error are not retried.
	ErrPermanentInput = errors.New("permanent input error")

	// ErrEmptyInput indicates an empty image or text input.
	ErrEmptyInput = errors.New("input cannot be empty")

	// ErrUnsupportedContent indicates bytes that are not a decodable image.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// Permanent wraps err so that IsPermanent reports true for it.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanentInput, err)
}

// IsPermanent reports whether err marks an input that should not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanentInput)
}
