package jsonhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPost(t *testing.T) {
	Convey("Given a JSON endpoint", t, func() {
		var gotAuth string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"abc"}`))
		}))
		defer srv.Close()

		c := New("test")

		Convey("It sends headers and body and decodes the reply", func() {
			var out struct {
				ID string `json:"id"`
			}
			err := c.Post(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer k"},
				map[string]string{"hello": "world"}, &out)
			So(err, ShouldBeNil)
			So(out.ID, ShouldEqual, "abc")
			So(gotAuth, ShouldEqual, "Bearer k")
			So(gotBody["hello"], ShouldEqual, "world")
		})

		Convey("A nil out skips decoding", func() {
			So(c.Post(context.Background(), srv.URL, nil, struct{}{}, nil), ShouldBeNil)
		})
	})
}

func TestStatusErrors(t *testing.T) {
	Convey("Given an endpoint that always fails", t, func() {
		var calls atomic.Int32
		var status atomic.Int32
		status.Store(http.StatusInternalServerError)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "boom", int(status.Load()))
		}))
		defer srv.Close()

		c := New("failing")

		Convey("The status is reported as a StatusError", func() {
			err := c.Post(context.Background(), srv.URL, nil, struct{}{}, nil)
			var se *StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.StatusCode, ShouldEqual, http.StatusInternalServerError)
			So(se.Body, ShouldContainSubstring, "boom")
		})

		Convey("Repeated server errors open the breaker", func() {
			for i := 0; i < breakerMinRequests; i++ {
				_ = c.Post(context.Background(), srv.URL, nil, struct{}{}, nil)
			}
			before := calls.Load()
			err := c.Post(context.Background(), srv.URL, nil, struct{}{}, nil)
			So(errors.Is(err, ErrCircuitOpen), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, before)
			So(c.State(), ShouldEqual, "open")
		})

		Convey("Client errors do not open the breaker", func() {
			status.Store(http.StatusBadRequest)
			for i := 0; i < breakerMinRequests*2; i++ {
				_ = c.Post(context.Background(), srv.URL, nil, struct{}{}, nil)
			}
			So(c.State(), ShouldEqual, "closed")
		})
	})
}
