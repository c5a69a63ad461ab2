// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/albrightlabs/auth0bridge/pkg/events"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// maxWebhookBody bounds how much of a webhook payload is read.
const maxWebhookBody = 1 << 20 // 1 MiB

// handleWebhook republishes an arbitrary JSON payload as a notification for
// external listeners. It always reports success; the bridge takes no action
// on the payload itself.
func (c *Controller) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		logger.Warnw("failed to read webhook body", "error", err)
		body = nil
	}

	payload := make(map[string]any)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.Warnw("webhook payload is not a JSON object", "error", err)
			payload = map[string]any{}
		}
	}

	c.events.Publish(events.Event{
		Name:    events.WebhookReceived,
		Payload: payload,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}
