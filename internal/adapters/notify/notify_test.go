package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nextwave678/launchit/internal/domain/model"
	"github.com/nextwave678/launchit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() { //nolint:gochecknoinits // test logger setup
	_ = logger.Init()
}

func sample() model.Notification {
	return model.Notification{
		ID:          "n1",
		To:          "owner@example.com",
		ProjectName: "Acme <Beta>",
		Lead: model.Lead{
			ID:           "l1",
			Email:        "jane@acme.io",
			Name:         "Jane Doe",
			Source:       "twitter",
			QualityScore: 85,
		},
	}
}

func TestLogNotifier(t *testing.T) {
	Convey("Given a log notifier writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithFormat("json"), logger.WithOutput(&buf)), ShouldBeNil)
		defer func() { _ = logger.Init() }()
		n := NewLogNotifier(nil)

		Convey("It logs the lead", func() {
			So(n.Notify(context.Background(), sample()), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "jane@acme.io")
		})

		Convey("It rejects a notification without recipient", func() {
			note := sample()
			note.To = ""
			So(errors.Is(n.Notify(context.Background(), note), ErrNoRecipient), ShouldBeTrue)
		})
	})
}

func TestEmailNotifier(t *testing.T) {
	Convey("Given an email API", t, func() {
		var got emailRequest
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"id":"email-1"}`))
		}))
		defer srv.Close()

		n := NewEmailNotifier(srv.URL, "re_key", "LaunchIt <noreply@launchit.app>", WithSiteURL("https://launchit.app"))

		Convey("It posts a rendered email", func() {
			So(n.Notify(context.Background(), sample()), ShouldBeNil)
			So(auth, ShouldEqual, "Bearer re_key")
			So(got.From, ShouldEqual, "LaunchIt <noreply@launchit.app>")
			So(got.To, ShouldResemble, []string{"owner@example.com"})
			So(got.HTML, ShouldContainSubstring, "Jane Doe")
			So(got.HTML, ShouldContainSubstring, "Acme &lt;Beta&gt;")
			So(got.HTML, ShouldContainSubstring, "Not provided")
			So(got.HTML, ShouldContainSubstring, "https://launchit.app/dashboard")
		})
	})

	Convey("Given an email API that rejects the key", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		n := NewEmailNotifier(srv.URL, "bad", "x@y.z")
		err := n.Notify(context.Background(), sample())
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "401")
	})
}
