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
	"context"
	"time"
)

// DefaultBackoff is the delay after each failed attempt. Its length is the
// number of attempts.
var DefaultBackoff = []time.Duration{1 * time.Second, 4 * time.Second, 10 * time.Second}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateSchedule(schedule []time.Duration) error {
	if len(schedule) == 0 {
		return ErrInvalidSchedule
	}
	for _, d := range schedule {
		if d < 0 {
			return ErrInvalidSchedule
		}
	}
	return nil
}
