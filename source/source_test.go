package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Comcast/spok/match"

	"github.com/gorilla/websocket"
)

func TestLines(t *testing.T) {
	ctx := context.Background()

	in := `{"likes":"tacos","n":1}
{"likes":"chips","n":2} [1,2]
"queso"
`
	var got []interface{}
	err := Each(ctx, Lines(strings.NewReader(in)), func(x interface{}) error {
		got = append(got, x)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("%d: %#v", len(got), got)
	}
	o, is := got[1].(match.Object)
	if !is {
		t.Fatalf("%T", got[1])
	}
	if ks := o.Keys(); ks[0] != "likes" || ks[1] != "n" {
		t.Fatal(ks)
	}
	if got[3] != "queso" {
		t.Fatal(got[3])
	}
}

func TestLinesBad(t *testing.T) {
	err := Each(context.Background(), Lines(strings.NewReader(`{"likes":`)), func(x interface{}) error {
		return nil
	})
	if err == nil {
		t.Fatal("didn't protest")
	}
}

func TestEachStops(t *testing.T) {
	var (
		src   = &Slice{1, 2, 3}
		stop  = errors.New("enough")
		count = 0
	)
	err := Each(context.Background(), src, func(x interface{}) error {
		if count++; count == 2 {
			return stop
		}
		return nil
	})
	if err != stop {
		t.Fatal(err)
	}
	if len(*src) != 1 {
		t.Fatal(*src)
	}
}

func TestEachCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Each(ctx, &Slice{1}, func(x interface{}) error {
		t.Fatal("called")
		return nil
	})
	if err != context.Canceled {
		t.Fatal(err)
	}
}

func TestWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer c.Close()
		for _, msg := range []string{`{"z":1,"a":2}`, `hello`} {
			if err = c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				t.Error(err)
				return
			}
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.WriteMessage(websocket.CloseMessage, msg)
		c.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := WebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	x, err := src.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if o, is := x.(match.Object); !is || o.Keys()[0] != "z" {
		t.Fatalf("%#v", x)
	}

	if x, err = src.Next(ctx); err != nil {
		t.Fatal(err)
	}
	if x != "hello" {
		t.Fatalf("%#v", x)
	}

	if _, err = src.Next(ctx); err != io.EOF {
		t.Fatal(err)
	}
}

func TestWebSocketBadURL(t *testing.T) {
	if _, err := WebSocket(context.Background(), "ws://127.0.0.1:1/nope"); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestPoll(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "homer"})
		} else if c, err := r.Cookie("session"); err != nil || c.Value != "homer" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"requests":%d}`, n)
	}))
	defer srv.Close()

	src, err := Poll(srv.URL, "* * * * * * *")
	if err != nil {
		t.Fatal(err)
	}
	src.Immediate = true
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 1; i <= 2; i++ {
		x, err := src.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n := match.Index(x, "statusCode"); !match.Equal(n, 200) {
			t.Fatalf("%d: %v", i, n)
		}
		if n := match.Index(match.Index(x, "body"), "requests"); !match.Equal(n, i) {
			t.Fatalf("%d: %v", i, n)
		}
	}
}

func TestPollBadCron(t *testing.T) {
	if _, err := Poll("http://localhost", "bad wolf"); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestPollCanceled(t *testing.T) {
	src, err := Poll("http://localhost", "0 0 1 1 *")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err = src.Next(ctx); err != context.DeadlineExceeded {
		t.Fatal(err)
	}
}

func TestParseTopic(t *testing.T) {
	for s, want := range map[string]struct {
		topic string
		qos   byte
	}{
		"homer":      {"homer", 0},
		"homer:1":    {"homer", 1},
		" kids/+:2 ": {"kids/+", 2},
		"kids/#":     {"kids/#", 0},
		"homer:beer": {"homer:beer", 0},
	} {
		topic, qos := parseTopic(s)
		if topic != want.topic || qos != want.qos {
			t.Fatalf("%q: %q %d", s, topic, qos)
		}
	}
}

func TestDecodePayload(t *testing.T) {
	x := decodePayload("simpsons", []byte(`{"name":"homer"}`), true)
	if got := match.Index(x, "topic"); got != "simpsons" {
		t.Fatal(got)
	}
	if x = decodePayload("simpsons", []byte(`{"name":"homer"}`), false); match.Index(x, "topic") != match.Undefined {
		t.Fatal(x)
	}
	if x = decodePayload("simpsons", []byte(`doh`), true); x != "doh" {
		t.Fatal(x)
	}
}

func TestMQTTNoTopics(t *testing.T) {
	if _, err := MQTT(context.Background(), DefaultMQTTOptions("tcp://localhost:1883")); err == nil {
		t.Fatal("didn't protest")
	}
}
