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


// Package source loads the scanner's descriptor map and reads file contents
// for the pipeline.
//
// Content is decoded as UTF-8 with byte-order-mark detection (UTF-8, UTF-16LE
// and UTF-16BE BOMs are honored and stripped). Invalid byte sequences are
// replaced with U+FFFD rather than failing the file.
package source
