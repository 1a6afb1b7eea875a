/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package source provides streams of actual values to check.
//
// A Source could read JSON from a pipe, listen to a WebSocket, hold
// an MQTT subscription, or poll an HTTP endpoint on a cron schedule.
package source

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Comcast/spok/specfile"
	"github.com/Comcast/spok/util"
)

// Source is a stream of values.
//
// Next blocks until a value is available, the Context is done, or
// the stream ends (io.EOF).
type Source interface {
	Next(ctx context.Context) (interface{}, error)
	Close() error
}

// Each calls fn with every value from src until src is exhausted,
// the Context is done, or fn returns an error.
//
// Reaching the end of the stream isn't an error.  src is closed
// before Each returns.
func Each(ctx context.Context, src Source, fn func(x interface{}) error) error {
	defer func() {
		if err := src.Close(); err != nil {
			util.Logf("source close error %s", err)
		}
	}()
	for {
		x, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err = fn(x); err != nil {
			return err
		}
	}
}

// LineSource reads a stream of JSON values.
//
// Despite the name, values don't have to be on separate lines.
// Objects keep the order of their properties.
type LineSource struct {
	r   io.Reader
	dec *specfile.Decoder
}

// Lines makes a LineSource.  If r is an io.Closer, Close closes it.
func Lines(r io.Reader) *LineSource {
	return &LineSource{
		r:   r,
		dec: specfile.NewDecoder(r),
	}
}

// Next returns the next value.
//
// The Context is only checked before reading.
func (s *LineSource) Next(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return s.dec.Decode()
}

func (s *LineSource) Close() error {
	if c, is := s.r.(io.Closer); is {
		return c.Close()
	}
	return nil
}

// Slice is a Source over a fixed list of values.
type Slice []interface{}

func (s *Slice) Next(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if len(*s) == 0 {
		return nil, io.EOF
	}
	x := (*s)[0]
	*s = (*s)[1:]
	return x, nil
}

func (s *Slice) Close() error {
	return nil
}

// chanSource adapts a channel that's fed by some callback-driven
// client.
type chanSource struct {
	c    chan interface{}
	errs chan error
	done chan struct{}

	closing sync.Once
}

func newChanSource(size int) *chanSource {
	return &chanSource{
		c:    make(chan interface{}, size),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}
}

// put forwards x unless the source has been closed.
func (s *chanSource) put(x interface{}) bool {
	select {
	case <-s.done:
		return false
	case s.c <- x:
		return true
	}
}

// fail reports an error to the next call to Next (once).
func (s *chanSource) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *chanSource) next(ctx context.Context) (interface{}, error) {
	// Values that arrived before an error or the end come first.
	select {
	case x := <-s.c:
		return x, nil
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case x := <-s.c:
		return x, nil
	case err := <-s.errs:
		return nil, err
	case <-s.done:
		return nil, io.EOF
	}
}

// close reports whether this call did the closing.
func (s *chanSource) close() bool {
	closed := false
	s.closing.Do(func() {
		close(s.done)
		closed = true
	})
	return closed
}
