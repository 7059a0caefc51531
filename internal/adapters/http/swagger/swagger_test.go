package swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"go.yaml.in/yaml/v3"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a mux with the document registered", t, func() {
		mux := http.NewServeMux()
		Register(mux)

		convey.Convey("Then GET /openapi.yaml serves the embedded document", func() {
			req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.Bytes(), convey.ShouldResemble, OpenAPI)
		})

		convey.Convey("Then other methods are refused", func() {
			req := httptest.NewRequest("POST", "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("The embedded document is valid YAML listing every route", t, func() {
		var doc struct {
			OpenAPI string                    `yaml:"openapi"`
			Paths   map[string]map[string]any `yaml:"paths"`
		}
		convey.So(yaml.Unmarshal(OpenAPI, &doc), convey.ShouldBeNil)
		convey.So(doc.OpenAPI, convey.ShouldStartWith, "3.")
		for path, methods := range map[string][]string{
			"/healthz":                          {"get"},
			"/api/analytics/track":              {"post"},
			"/api/analytics":                    {"get"},
			"/api/leads/capture":                {"post"},
			"/api/leads":                        {"get", "patch", "delete"},
			"/api/leads/export":                 {"get"},
			"/api/projects":                     {"get", "post"},
			"/api/projects/{id}":                {"get", "patch", "delete"},
			"/api/campaigns":                    {"get", "post", "patch", "delete"},
			"/api/landing-pages":                {"get"},
			"/api/landing-pages/{id}/publish":   {"post"},
			"/api/landing-pages/{id}/unpublish": {"post"},
			"/api/landing-pages/{id}":           {"delete"},
			"/l/{slug}":                         {"get"},
			"/api/agents/{kind}":                {"post"},
			"/api/agents/runs":                  {"get"},
		} {
			convey.So(doc.Paths, convey.ShouldContainKey, path)
			for _, m := range methods {
				convey.So(doc.Paths[path], convey.ShouldContainKey, m)
			}
		}
	})
}

func TestSwaggerHandlerWithNilMux(t *testing.T) {
	convey.Convey("Registering on a nil mux panics", t, func() {
		convey.So(func() { Register(nil) }, convey.ShouldPanic)
	})
}
