package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nextwave678/launchit/internal/domain/agent"
	. "github.com/smartystreets/goconvey/convey"
)

func TestComplete(t *testing.T) {
	Convey("Given a Messages API", t, func() {
		var got messagesRequest
		var headers http.Header
		reply := `{"content":[{"type":"text","text":"{\"ok\":"},{"type":"text","text":"true}"}],"stop_reason":"end_turn"}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers = r.Header.Clone()
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(reply))
		}))
		defer srv.Close()

		c := New(srv.URL, "sk-test", "claude-test", time.Second)

		Convey("It sends the prompt and joins the text blocks", func() {
			out, err := c.Complete(context.Background(), agent.Prompt{
				System: "sys", User: "hello", MaxTokens: 500, Temperature: 0.3,
			})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"ok":true}`)
			So(headers.Get("x-api-key"), ShouldEqual, "sk-test")
			So(headers.Get("anthropic-version"), ShouldEqual, apiVersion)
			So(got.Model, ShouldEqual, "claude-test")
			So(got.System, ShouldEqual, "sys")
			So(got.MaxTokens, ShouldEqual, 500)
			So(got.Messages, ShouldResemble, []message{{Role: "user", Content: "hello"}})
		})

		Convey("A zero max tokens uses the default", func() {
			_, err := c.Complete(context.Background(), agent.Prompt{User: "hi"})
			So(err, ShouldBeNil)
			So(got.MaxTokens, ShouldEqual, defaultMaxTokens)
		})

		Convey("A reply without text is an error", func() {
			reply = `{"content":[],"stop_reason":"end_turn"}`
			_, err := c.Complete(context.Background(), agent.Prompt{User: "hi"})
			So(errors.Is(err, ErrEmptyResponse), ShouldBeTrue)
		})
	})

	Convey("Without an API key the client refuses to call out", t, func() {
		c := New("http://127.0.0.1:0", "", "m", time.Second)
		_, err := c.Complete(context.Background(), agent.Prompt{User: "hi"})
		So(errors.Is(err, ErrNotConfigured), ShouldBeTrue)
	})
}
