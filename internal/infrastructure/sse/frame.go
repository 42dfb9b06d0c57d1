// Package sse implements the streaming side of the tool-call protocol: event
// framing, session negotiation and the background result listener.
package sse

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// DefaultMaxFrameSize bounds a single line on the stream
const DefaultMaxFrameSize = 4 * 1024 * 1024

// Frame is one dispatched server-sent event
type Frame struct {
	Event string
	Data  string
	ID    string
}

// ReadFrames scans r and calls fn for every complete event. It returns nil at
// EOF or when fn returns false, ctx.Err() when ctx ends first, and the read
// error otherwise.
func ReadFrames(ctx context.Context, r io.Reader, maxSize int, fn func(Frame) bool) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, maxSize)), maxSize)

	var (
		current Frame
		data    []string
		pending bool
	)
	dispatch := func() bool {
		if !pending {
			return true
		}
		current.Data = strings.Join(data, "\n")
		keepGoing := fn(current)
		current, data, pending = Frame{}, data[:0], false
		return keepGoing
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			if !dispatch() {
				return nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "event":
			current.Event = value
			pending = true
		case "data":
			data = append(data, value)
			pending = true
		case "id":
			current.ID = value
			pending = true
		}
	}

	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dispatch()
	return nil
}

// splitField separates "field: value", dropping one leading space from value
func splitField(line string) (string, string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
