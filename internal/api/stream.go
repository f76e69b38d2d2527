// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFrameSize is the maximum allowed size for a single SSE frame.
	// SECURITY: Frame size limit prevents memory exhaustion from an
	// unterminated frame.
	MaxFrameSize = 64 * 1024 // 64KB

	// frameDelimiter separates frames on the wire.
	frameDelimiter = "\n\n"

	// framePrefix marks the payload line of a frame.
	framePrefix = "data:"

	// doneMarker is the legacy end-of-stream marker some backends emit
	// in place of a complete frame.
	doneMarker = "[DONE]"

	// readChunkSize is the buffer size for each body read.
	readChunkSize = 4096
)

// =============================================================================
// FRAME SCANNER
// =============================================================================

// frameScanner splits a byte stream into SSE frames. Frames are
// delimited by a blank line; a partial frame is carried over between
// pushes so frames split across network chunks reassemble correctly.
type frameScanner struct {
	buf bytes.Buffer
}

// push appends a chunk and returns the complete frames it unlocked.
// Returns an error if the carried-over partial frame exceeds
// MaxFrameSize.
func (s *frameScanner) push(chunk []byte) ([]string, error) {
	s.buf.Write(chunk)

	var frames []string
	for {
		data := s.buf.Bytes()
		idx := bytes.Index(data, []byte(frameDelimiter))
		if idx < 0 {
			break
		}
		frames = append(frames, string(data[:idx]))
		s.buf.Next(idx + len(frameDelimiter))
	}

	if s.buf.Len() > MaxFrameSize {
		return frames, fmt.Errorf("frame exceeds maximum size of %d bytes", MaxFrameSize)
	}
	return frames, nil
}

// rest returns any unterminated trailing data.
func (s *frameScanner) rest() string {
	return s.buf.String()
}

// payload strips the frame marker from a raw frame. Returns the JSON
// payload and whether the frame carried the marker at all.
func payload(frame string) (string, bool) {
	frame = strings.TrimRight(frame, "\r\n")
	if !strings.HasPrefix(frame, framePrefix) {
		return "", false
	}
	return strings.TrimSpace(frame[len(framePrefix):]), true
}

// =============================================================================
// STREAM CONSUMER
// =============================================================================

// StreamQuery submits a natural-language question and consumes the
// streamed response, dispatching each frame through cb.
//
// Delivery guarantees:
//   - exactly one terminal callback (OnComplete or OnError) per call
//     that was not cancelled, with one exception: the legacy [DONE]
//     sentinel ends the stream with no callback at all
//   - no callbacks at all after ctx is cancelled; cancellation returns
//     ctx.Err() and is otherwise silent
//   - transport and server failures are reported through OnError and
//     the function returns nil, so callers have a single error path
func (c *Client) StreamQuery(ctx context.Context, query, sessionID string, cb StreamCallbacks) error {
	body, err := json.Marshal(queryRequest{
		Query:     query,
		SessionID: sessionID,
		Stream:    true,
	})
	if err != nil {
		cb.error(fmt.Sprintf("failed to marshal request: %v", err))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analysis/", bytes.NewReader(body))
	if err != nil {
		cb.error(fmt.Sprintf("failed to create request: %v", err))
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	c.logRequest(req)
	start := time.Now()
	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctxErr := cancelErr(ctx, err); ctxErr != nil {
			return ctxErr
		}
		cb.error(fmt.Sprintf("%v: %v", ErrUnavailable, err))
		return nil
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		data, readErr := readBody(resp)
		if readErr != nil {
			data = nil
		}
		cb.error(c.errorFromResponse(resp.StatusCode, data).Error())
		return nil
	}

	return c.consumeStream(ctx, resp.Body, cb)
}

// consumeStream reads frames from r until a terminal frame, EOF, or
// cancellation.
func (c *Client) consumeStream(ctx context.Context, r io.Reader, cb StreamCallbacks) error {
	scanner := &frameScanner{}
	chunk := make([]byte, readChunkSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := r.Read(chunk)
		if n > 0 {
			frames, scanErr := scanner.push(chunk[:n])
			for _, frame := range frames {
				terminal, err := c.dispatchFrame(frame, cb)
				if err != nil {
					cb.error(err.Error())
					return nil
				}
				if terminal {
					// Stop reading: nothing after a terminal frame
					// is delivered.
					return nil
				}
			}
			if scanErr != nil {
				cb.error(scanErr.Error())
				return nil
			}
		}

		if readErr != nil {
			if ctxErr := cancelErr(ctx, readErr); ctxErr != nil {
				return ctxErr
			}
			if readErr == io.EOF {
				// Trailing data without a closing delimiter is still a
				// frame; try it before declaring truncation.
				if rest := scanner.rest(); strings.TrimSpace(rest) != "" {
					terminal, err := c.dispatchFrame(rest, cb)
					if err == nil && terminal {
						return nil
					}
				}
				cb.error("stream ended before completion")
				return nil
			}
			cb.error(fmt.Sprintf("stream read failed: %v", readErr))
			return nil
		}
	}
}

// dispatchFrame decodes one frame and fires the matching callback.
// Returns terminal=true when the frame ends the stream. Malformed and
// unknown frames are skipped with a log line; they never abort the
// stream. A returned error is a protocol-level failure the caller must
// surface as the terminal error.
func (c *Client) dispatchFrame(frame string, cb StreamCallbacks) (terminal bool, err error) {
	raw, ok := payload(frame)
	if !ok {
		if strings.TrimSpace(frame) != "" {
			c.logger.Printf("Skipping frame without data marker (%d bytes)", len(frame))
		}
		return false, nil
	}
	if raw == "" {
		return false, nil
	}
	if raw == doneMarker {
		// Legacy end-of-stream sentinel: the stream is over, but there
		// is no payload, so no terminal callback fires.
		return true, nil
	}

	var wf wireFrame
	if err := json.Unmarshal([]byte(raw), &wf); err != nil {
		c.logger.Printf("Skipping malformed frame: %v", err)
		return false, nil
	}

	switch EventType(wf.Type) {
	case EventToken:
		cb.token(wf.Content)
		return false, nil

	case EventStatus:
		cb.status(wf.Content)
		return false, nil

	case EventComplete:
		var p AnalysisPayload
		if len(wf.Data) > 0 {
			if err := json.Unmarshal(wf.Data, &p); err != nil {
				return true, fmt.Errorf("malformed completion payload: %v", err)
			}
		}
		cb.complete(p)
		return true, nil

	case EventError:
		msg := wf.Error
		if msg == "" {
			msg = wf.Content
		}
		if msg == "" {
			msg = "analysis failed"
		}
		cb.error(msg)
		return true, nil

	default:
		// Forward compatibility: unknown frame types are ignored.
		c.logger.Printf("Skipping unknown frame type %q", wf.Type)
		return false, nil
	}
}

// cancelErr maps a transport error caused by context cancellation back
// to the context's error, or returns nil if the context is still live.
func cancelErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
