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


package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	checkpointKey  = "chkpt:snapshot"
	eventPrefix    = "evt:"
	eventSeq       = "evtseq"
	eventKeyLength = len(eventPrefix) + 8
)

// makeEventKey generates a key for the event with the given sequence number.
// Format: prefix:seq, with seq in BigEndian so lexicographic order is append order.
func makeEventKey(seq uint64) []byte {
	buf := make([]byte, eventKeyLength)
	offset := copy(buf, eventPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// parseEventKey extracts the sequence number from an event key.
func parseEventKey(key []byte) (uint64, bool) {
	if len(key) != eventKeyLength || string(key[:len(eventPrefix)]) != eventPrefix {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(eventPrefix):]), true
}
