package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVerifier(t *testing.T) {
	Convey("Given a verifier", t, func() {
		v := NewVerifier("s3cret")

		Convey("An issued token round-trips", func() {
			tok, err := v.Issue("user-1", "u@example.com", time.Hour)
			So(err, ShouldBeNil)
			c, err := v.Verify(tok)
			So(err, ShouldBeNil)
			So(c.Subject, ShouldEqual, "user-1")
			So(c.Email, ShouldEqual, "u@example.com")
		})

		Convey("A token signed with another secret is rejected", func() {
			tok, _ := NewVerifier("other").Issue("user-1", "", time.Hour)
			_, err := v.Verify(tok)
			So(errors.Is(err, ErrInvalidToken), ShouldBeTrue)
		})

		Convey("An expired token is reported as expired", func() {
			tok, _ := v.Issue("user-1", "", -time.Minute)
			_, err := v.Verify(tok)
			So(errors.Is(err, ErrExpiredToken), ShouldBeTrue)
		})

		Convey("A token without subject is rejected", func() {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x@y.z"}).SignedString([]byte("s3cret"))
			_, err := v.Verify(tok)
			So(errors.Is(err, ErrInvalidToken), ShouldBeTrue)
		})

		Convey("A token using another algorithm is rejected", func() {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u"}).SignedString([]byte("s3cret"))
			_, err := v.Verify(tok)
			So(errors.Is(err, ErrInvalidToken), ShouldBeTrue)
		})

		Convey("FromRequest requires a bearer header", func() {
			r := httptest.NewRequest("GET", "/", nil)
			_, err := v.FromRequest(r)
			So(errors.Is(err, ErrMissingToken), ShouldBeTrue)

			r.Header.Set("Authorization", "Basic abc")
			_, err = v.FromRequest(r)
			So(errors.Is(err, ErrMissingToken), ShouldBeTrue)

			tok, _ := v.Issue("user-2", "", time.Hour)
			r.Header.Set("Authorization", "bearer "+tok)
			c, err := v.FromRequest(r)
			So(err, ShouldBeNil)
			So(c.Subject, ShouldEqual, "user-2")
		})
	})
}

func TestContext(t *testing.T) {
	Convey("The caller identity travels in the context", t, func() {
		So(UserID(context.Background()), ShouldBeEmpty)
		ctx := WithUser(context.Background(), "u1", "u1@example.com")
		So(UserID(ctx), ShouldEqual, "u1")
		So(Email(ctx), ShouldEqual, "u1@example.com")
	})
}
