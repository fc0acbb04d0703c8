// Copyright 2025 Poiesic Systems
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


package embedding

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
)

// ErrorClass tells the retry loop how to react to a failed attempt.
type ErrorClass int

const (
	// ClassNone is the class of a nil error.
	ClassNone ErrorClass = iota
	// ClassTransient failures are retried after backoff.
	ClassTransient
	// ClassQuota failures are rate limit or quota rejections, retried after backoff.
	ClassQuota
	// ClassMalformed failures are rejections of the request itself and are not retried.
	ClassMalformed
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassQuota:
		return "quota"
	case ClassMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

var (
	quotaPattern     = regexp.MustCompile(`\b429\b|quota|rate limit|resource exhausted|resource_exhausted`)
	malformedPattern = regexp.MustCompile(`\b400\b|invalid argument|invalid_argument|payload too large`)
)

// Classify maps an embedding failure to an ErrorClass.
//
// Typed errors are checked first: langchaingo *llms.Error codes, then go-openai
// HTTP status codes. Untyped errors fall back to matching the message text.
// Open circuit breakers and response mismatches are transient.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}

	if errors.Is(err, ErrMalformedRequest) {
		return ClassMalformed
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, ErrVectorCount) {
		return ClassTransient
	}

	var llmErr *llms.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Code {
		case llms.ErrCodeRateLimit, llms.ErrCodeQuotaExceeded:
			return ClassQuota
		case llms.ErrCodeInvalidRequest, llms.ErrCodeTokenLimit:
			return ClassMalformed
		}
	}

	if status, ok := httpStatus(err); ok {
		switch status {
		case http.StatusTooManyRequests:
			return ClassQuota
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
			return ClassMalformed
		default:
			return ClassTransient
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case quotaPattern.MatchString(msg):
		return ClassQuota
	case malformedPattern.MatchString(msg):
		return ClassMalformed
	default:
		return ClassTransient
	}
}

// httpStatus extracts the status code carried by go-openai errors.
func httpStatus(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}
