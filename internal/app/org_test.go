package app_test

import (
	"context"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/roadlens/internal/adapters/backend"
	"github.com/okian/roadlens/internal/app"
	"github.com/okian/roadlens/internal/domain/model"
)

// fakeOrgClient scripts the org endpoints and counts loads.
type fakeOrgClient struct {
	usage    *model.OrgUsage
	usageErr error

	tokens    []model.APIToken
	tokensErr error

	createErr error
	revokeErr error

	usageCalls  atomic.Int64
	tokensCalls atomic.Int64
	revoked     atomic.Int64
}

func newFakeOrgClient() *fakeOrgClient {
	return &fakeOrgClient{
		usage: &model.OrgUsage{
			YearMonth:        "2026-08",
			ProcessedMinutes: 12.5,
			JobsTotal:        4,
			Limits:           model.UsageLimits{ProcessedMinutes: 600, Jobs: 100, Exports: 50},
		},
		tokens: []model.APIToken{{ID: 11, Name: "web", CreatedAt: "2026-08-30T10:00:00"}},
	}
}

func (f *fakeOrgClient) OrgUsage(context.Context) (*model.OrgUsage, error) {
	f.usageCalls.Add(1)
	return f.usage, f.usageErr
}

func (f *fakeOrgClient) ListTokens(context.Context) ([]model.APIToken, error) {
	f.tokensCalls.Add(1)
	return f.tokens, f.tokensErr
}

func (f *fakeOrgClient) CreateToken(_ context.Context, name string) (*model.NewToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &model.NewToken{ID: 12, Name: name, Token: "rl_plaintext_once"}, nil
}

func (f *fakeOrgClient) RevokeToken(context.Context, int64) error {
	f.revoked.Add(1)
	if f.revokeErr == nil {
		at := "2026-08-30T11:00:00"
		f.tokens[0].RevokedAt = &at
	}
	return f.revokeErr
}

func (f *fakeOrgClient) DataCatalog(context.Context) ([]model.CatalogItem, error) {
	return []model.CatalogItem{{JobID: 2, DatapackVersion: "v1", Hash: "deadbeef"}}, nil
}

func TestOrgManager(t *testing.T) {
	Convey("Given an org manager over a scripted backend", t, func() {
		client := newFakeOrgClient()
		mgr := app.NewOrgManager(client)
		ctx := context.Background()

		Convey("When loading usage and tokens", func() {
			view, err := mgr.Load(ctx)

			Convey("Then both halves arrive together", func() {
				So(err, ShouldBeNil)
				So(view.Usage.YearMonth, ShouldEqual, "2026-08")
				So(view.Tokens, ShouldHaveLength, 1)
				So(mgr.Latest(), ShouldEqual, view)
			})
		})

		Convey("When the usage endpoint fails", func() {
			client.usageErr = &backend.APIError{Op: "load usage", Status: 503}

			view, err := mgr.Load(ctx)

			Convey("Then the load aborts with that endpoint's error", func() {
				So(view, ShouldBeNil)
				So(err.Error(), ShouldEqual, "failed to load usage (503)")
			})
		})

		Convey("When the token endpoint fails", func() {
			client.tokensErr = &backend.APIError{Op: "load tokens", Status: 500, Detail: "token store offline"}

			view, err := mgr.Load(ctx)

			Convey("Then the load aborts with the backend's message", func() {
				So(view, ShouldBeNil)
				So(err.Error(), ShouldEqual, "token store offline")
			})
		})

		Convey("When creating a token", func() {
			plaintext, err := mgr.CreateToken(ctx, "web")

			Convey("Then the plaintext comes back once and the view refreshes", func() {
				So(err, ShouldBeNil)
				So(plaintext, ShouldEqual, "rl_plaintext_once")
				So(client.tokensCalls.Load(), ShouldEqual, 1)
				So(mgr.Latest(), ShouldNotBeNil)
			})
		})

		Convey("When revoking a token", func() {
			_, err := mgr.Load(ctx)
			So(err, ShouldBeNil)

			So(mgr.RevokeToken(ctx, 11), ShouldBeNil)

			Convey("Then the listing reloads and keeps the revoked entry", func() {
				So(client.revoked.Load(), ShouldEqual, 1)
				So(mgr.Latest().Tokens, ShouldHaveLength, 1)
				So(mgr.Latest().Tokens[0].Revoked(), ShouldBeTrue)
			})
		})

		Convey("When the revoke request fails", func() {
			client.revokeErr = &backend.APIError{Op: "revoke token", Status: 404, Detail: "Not found"}

			err := mgr.RevokeToken(ctx, 99)

			Convey("Then the forced reload still happens", func() {
				So(err, ShouldBeNil)
				So(client.tokensCalls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When fetching the data catalog", func() {
			items, err := mgr.Catalog(ctx)

			Convey("Then the published entries come through", func() {
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 1)
			})
		})
	})
}
