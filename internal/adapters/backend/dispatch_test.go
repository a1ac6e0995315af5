package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/roadlens/internal/adapters/backend"
)

func TestDispatch(t *testing.T) {
	Convey("Given a reachable backend", t, func() {
		r := mux.NewRouter()
		r.HandleFunc("/api/jobs/9", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"not found"}`))
		}).Methods(http.MethodGet)
		r.HandleFunc("/api/jobs", func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if req.Header.Get("X-Request-ID") == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`[{"id":1,"status":"queued","filename":"a.mp4"}]`))
		}).Methods(http.MethodGet)
		srv := httptest.NewServer(r)
		defer srv.Close()

		d := backend.NewDispatcher(srv.URL + "/api")
		ctx := context.Background()

		Convey("When the backend answers 404 with a detail body", func() {
			resp, err := d.Dispatch(ctx, http.MethodGet, "/jobs/9", backend.WithOperation("load job"))

			Convey("Then the response is returned normally for the caller to interpret", func() {
				So(err, ShouldBeNil)
				So(resp.OK(), ShouldBeFalse)
				So(resp.Status, ShouldEqual, http.StatusNotFound)
				So(resp.Detail(), ShouldEqual, "not found")
			})
		})

		Convey("When the request carries a bearer token", func() {
			resp, err := d.Dispatch(ctx, http.MethodGet, "/jobs",
				backend.WithOperation("load jobs"),
				backend.WithBearer("tok-1"))

			Convey("Then the call succeeds and the body decodes", func() {
				So(err, ShouldBeNil)
				So(resp.OK(), ShouldBeTrue)
				var jobs []map[string]any
				So(resp.DecodeJSON(&jobs), ShouldBeTrue)
				So(jobs, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given an unreachable backend", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL + "/api"
		srv.Close()

		d := backend.NewDispatcher(base)

		Convey("When dispatching", func() {
			resp, err := d.Dispatch(context.Background(), http.MethodGet, "/jobs", backend.WithOperation("load jobs"))

			Convey("Then a transport error is raised, distinct from any HTTP status", func() {
				So(resp, ShouldBeNil)
				So(err, ShouldWrap, backend.ErrTransport)
				So(err.Error(), ShouldContainSubstring, "processing backend")
			})
		})
	})
}

func TestSafeBodyParsing(t *testing.T) {
	Convey("Given responses with hostile bodies", t, func() {
		Convey("When the body is not JSON", func() {
			resp := &backend.Response{Status: http.StatusBadGateway, Body: []byte("<html>upstream exploded</html>")}

			Convey("Then parsing degrades instead of failing", func() {
				var v map[string]any
				So(resp.DecodeJSON(&v), ShouldBeFalse)
				So(resp.Detail(), ShouldEqual, "")
			})
		})

		Convey("When the body is absent", func() {
			resp := &backend.Response{Status: http.StatusInternalServerError}

			Convey("Then parsing degrades instead of failing", func() {
				var v map[string]any
				So(resp.DecodeJSON(&v), ShouldBeFalse)
				So(resp.Detail(), ShouldEqual, "")
			})
		})
	})
}
