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


// Package ratelimit enforces a requests-per-minute ceiling on calls to an
// external service.
//
// A Limiter admits one request per interval (60s / rpm) with no burst, so
// every permitted call is separated from the previous one by at least the
// interval. A Limiter is owned by the caller and passed explicitly to the
// components that share an endpoint; it is safe for concurrent use.
package ratelimit
