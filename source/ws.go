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

package source

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/Comcast/spok/specfile"
	"github.com/Comcast/spok/util"

	"github.com/gorilla/websocket"
)

// WebSocketSource listens to a WebSocket server.
//
// Every message should be JSON.  A message that isn't JSON is given
// as a string.
type WebSocketSource struct {
	URL string

	conn *websocket.Conn
	once sync.Once
	*chanSource
}

// WebSocket dials the server and starts listening.
func WebSocket(ctx context.Context, urls string) (*WebSocketSource, error) {
	u, err := url.Parse(urls)
	if err != nil {
		return nil, err
	}

	c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", urls, err)
	}

	util.Logf("WebSocketSource starting: %s", urls)

	s := &WebSocketSource{
		URL:        urls,
		conn:       c,
		chanSource: newChanSource(10),
	}

	go s.listen()

	return s, nil
}

func (s *WebSocketSource) listen() {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				util.Logf("WebSocketSource %s closed", s.URL)
				s.close()
				return
			}
			select {
			case <-s.done:
				return
			default:
			}
			util.Logf("WebSocketSource read error %s", err)
			s.fail(err)
			return
		}
		util.Logf("WebSocketSource heard %s", message)
		if !s.put(decodeMessage(message)) {
			return
		}
	}
}

// Next returns the next message.  When the server closes the
// connection normally, the error is io.EOF.
func (s *WebSocketSource) Next(ctx context.Context) (interface{}, error) {
	return s.next(ctx)
}

// Close closes the connection.
func (s *WebSocketSource) Close() error {
	var err error
	s.once.Do(func() {
		s.close()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := s.conn.WriteMessage(websocket.CloseMessage, msg); werr != nil {
			util.Logf("WebSocketSource close message error %s", werr)
		}
		err = s.conn.Close()
	})
	return err
}

// decodeMessage parses JSON or falls back to the string.
func decodeMessage(message []byte) interface{} {
	x, err := specfile.Decode(message, specfile.JSON)
	if err != nil {
		util.Logf("couldn't JSON-parse message: %s", message)
		return string(message)
	}
	return x
}
