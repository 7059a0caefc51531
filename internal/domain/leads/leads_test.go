package leads_test

import (
	"testing"

	"github.com/nextwave678/launchit/internal/domain/leads"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQualityScore(t *testing.T) {
	Convey("Given lead details", t, func() {
		Convey("When only a free-mail address is known", func() {
			So(leads.QualityScore("jo@gmail.com", "", ""), ShouldEqual, 60)
			So(leads.QualityScore("jo@yahoo.com", "Jo", ""), ShouldEqual, 60)
		})

		Convey("When a work address is given", func() {
			So(leads.QualityScore("jo@acme.io", "", ""), ShouldEqual, 70)
		})

		Convey("When the address has no @", func() {
			So(leads.QualityScore("nobody", "", ""), ShouldEqual, 30)
		})

		Convey("When a full name and phone are given", func() {
			So(leads.QualityScore("jo@acme.io", "Jo Smith", "+1 555 0100"), ShouldEqual, 100)
			So(leads.QualityScore("jo@hotmail.com", "Jo Smith", "5550100100"), ShouldEqual, 90)
		})

		Convey("When the phone is too short", func() {
			So(leads.QualityScore("jo@acme.io", "", "555-0100"), ShouldEqual, 70)
		})

		Convey("Then the score never leaves 0..100", func() {
			for _, tc := range [][3]string{
				{"", "", ""},
				{"x@y.z", "a b c d", "12345678901234"},
			} {
				s := leads.QualityScore(tc[0], tc[1], tc[2])
				So(s, ShouldBeBetweenOrEqual, 0, 100)
			}
		})
	})
}

func TestValidEmail(t *testing.T) {
	Convey("Given candidate addresses", t, func() {
		Convey("Then well-formed ones pass", func() {
			So(leads.ValidEmail("founder@startup.io"), ShouldBeTrue)
			So(leads.ValidEmail("a.b+c@d.co.uk"), ShouldBeTrue)
		})

		Convey("Then malformed ones fail", func() {
			So(leads.ValidEmail(""), ShouldBeFalse)
			So(leads.ValidEmail("no-at.example.com"), ShouldBeFalse)
			So(leads.ValidEmail("a@b"), ShouldBeFalse)
			So(leads.ValidEmail("a b@c.com"), ShouldBeFalse)
			So(leads.ValidEmail("a@@c.com"), ShouldBeFalse)
		})
	})
}

func TestSourceOrDefault(t *testing.T) {
	Convey("Given a lead source", t, func() {
		So(leads.SourceOrDefault(""), ShouldEqual, leads.DefaultSource)
		So(leads.SourceOrDefault("  "), ShouldEqual, leads.DefaultSource)
		So(leads.SourceOrDefault("twitter"), ShouldEqual, "twitter")
	})
}
