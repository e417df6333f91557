// Package sse decodes council turn streams: line-delimited server-sent
// events carried on a single long-lived response body.
package sse

import (
	"bufio"
	"bytes"
	"io"

	"go.uber.org/zap"

	"github.com/llm-council/council-client/pkg/logger"
	"github.com/llm-council/council-client/pkg/metrics"
)

// dataPrefix marks a frame-carrying line. Lines without it (comments,
// event/id fields, blank keep-alives) are ignored, not errors.
var dataPrefix = []byte("data: ")

// Decoder turns a raw chunked byte stream into a sequence of complete frame
// bodies. A frame is only emitted once its terminating newline has been
// observed, so a frame split across two network chunks is reassembled rather
// than emitted twice or truncated. The bufio.Reader carries partial-line
// state across reads.
type Decoder struct {
	reader *bufio.Reader
	log    *logger.Logger
}

// NewDecoder creates a decoder over a response body.
func NewDecoder(r io.Reader, log *logger.Logger) *Decoder {
	if log == nil {
		log = logger.Global()
	}
	return &Decoder{
		reader: bufio.NewReader(r),
		log:    log,
	}
}

// Next returns the body of the next complete data frame, or io.EOF once the
// stream ends. Unterminated trailing bytes at EOF are discarded: the server
// always newline-terminates its final frame, so leftovers indicate a
// truncated stream and are logged rather than surfaced as a frame.
func (d *Decoder) Next() ([]byte, error) {
	for {
		line, err := d.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(line) > 0 {
					d.log.Warn("discarding unterminated trailing bytes at stream end",
						zap.Int("bytes", len(line)),
					)
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if !bytes.HasPrefix(line, dataPrefix) {
			continue
		}

		metrics.FramesDecoded.Inc()
		return line[len(dataPrefix):], nil
	}
}
