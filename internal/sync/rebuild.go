// Ballotscope - Election Information and Campaign Finance Tracking
// Copyright 2026 Ballotscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ballotscope/ballotscope

package sync

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// rebuildTimeout bounds the static site rebuild hook call.
const rebuildTimeout = 10 * time.Second

// triggerRebuild issues the bare POST to the static site rebuild hook.
// The hook carries no body and no authentication; the URL itself is the
// capability.
func triggerRebuild(ctx context.Context, hookURL string) error {
	ctx, cancel := context.WithTimeout(ctx, rebuildTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hookURL, nil)
	if err != nil {
		return fmt.Errorf("create rebuild request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post rebuild hook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rebuild hook returned status %d", resp.StatusCode)
	}
	return nil
}
