// Copyright 2025 Tom Barlow
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

package log

import (
	"context"
	"log/slog"
	"time"
)

// Operation wraps fn with start and completion log entries. The completion
// entry carries the duration and, on failure, the error. Failures are logged
// at info level; reporting them to the user is the caller's job.
func Operation(ctx context.Context, logger *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	logger.DebugContext(ctx, "operation started", OperationKey, name)

	err := fn()

	attrs := []any{
		OperationKey, name,
		DurationKey, time.Since(start).Milliseconds(),
		"success", err == nil,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		logger.InfoContext(ctx, "operation failed", attrs...)
		return err
	}
	logger.DebugContext(ctx, "operation completed", attrs...)
	return nil
}
