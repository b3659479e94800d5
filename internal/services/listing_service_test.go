package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"metalhub_backend/internal/models"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/internal/testutil"
	"metalhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingFixture struct {
	svc      ListingService
	listings *fakeListingRepo
	offers   *fakeOfferRepo
	members  *fakeMembershipService
}

func newListingFixture(plan models.MembershipPlan, seed ...*models.Listing) *listingFixture {
	f := &listingFixture{
		listings: newFakeListingRepo(seed...),
		offers:   newFakeOfferRepo(),
		members:  &fakeMembershipService{plan: plan},
	}
	f.svc = NewListingService(f.listings, f.offers, newFakeChatRepo(), f.members)
	return f
}

func createListingRequest(images ...string) *dto.CreateListingRequest {
	return &dto.CreateListingRequest{
		Title:       "MS plates 10mm",
		Description: "IS 2062 E250",
		MetalType:   models.MetalSteel,
		ListingRole: models.ListingRoleSupplier,
		Price:       52000,
		Quantity:    20,
		Location:    dto.Location{Country: "India", City: "Pune"},
		ImageURLs:   images,
	}
}

func seededListings(sellerID string, n int, status models.ListingStatus) []*models.Listing {
	out := make([]*models.Listing, 0, n)
	for i := 0; i < n; i++ {
		l := approvedListing(fmt.Sprintf("seed-%d", i), sellerID, true)
		l.Status = status
		out = append(out, l)
	}
	return out
}

func TestListingService_CreateStartsPending(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	f := newListingFixture(models.PlanFree)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := f.svc.Create(context.Background(), db, "seller", createListingRequest("https://cdn.example.com/a.jpg"))
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusPending, resp.Status)
	assert.Equal(t, "MT", resp.Unit)
	assert.False(t, resp.IsNegotiable)
	assert.Len(t, resp.Images, 1)
	assert.Equal(t, models.ListingStatusPending, f.listings.get(resp.ID).Status)
}

func TestListingService_FreePlanQuota(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	pending := approvedListing("pending", "seller", true)
	pending.Status = models.ListingStatusPending
	rejected := approvedListing("rejected", "seller", true)
	rejected.Status = models.ListingStatusRejected
	f := newListingFixture(models.PlanFree,
		approvedListing("approved", "seller", true),
		pending,
		rejected,
		approvedListing("foreign", "other", true),
	)

	// Third listing fits: one approved, one pending, rejected ones don't count.
	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := f.svc.Create(context.Background(), db, "seller", createListingRequest())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = f.svc.Create(context.Background(), db, "seller", createListingRequest())
	assert.ErrorIs(t, err, apperrors.ErrFreePlanListingLimit)

	count, _ := f.listings.CountBySellerAndStatuses(nil, "seller", quotaStatuses)
	assert.EqualValues(t, 3, count)
}

func TestListingService_GoldPlanUnlimited(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	f := newListingFixture(models.PlanGold, seededListings("seller", 100, models.ListingStatusApproved)...)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := f.svc.Create(context.Background(), db, "seller", createListingRequest())
	require.NoError(t, err)
}

func TestListingService_ImageLimit(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	f := newListingFixture(models.PlanFree)

	images := []string{"https://a/1.jpg", "https://a/2.jpg", "https://a/3.jpg", "https://a/4.jpg"}

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := f.svc.Create(context.Background(), db, "seller", createListingRequest(images...))
	assert.ErrorIs(t, err, apperrors.ErrImageLimitExceeded)

	f.members.plan = models.PlanSilver
	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = f.svc.Create(context.Background(), db, "seller", createListingRequest(images...))
	require.NoError(t, err)
}

func TestListingService_UpdateApprovedGoesBackToPending(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	f := newListingFixture(models.PlanFree, approvedListing("l1", "seller", true))

	mock.ExpectBegin()
	mock.ExpectCommit()

	price := 48000.0
	resp, err := f.svc.Update(context.Background(), db, "seller", "l1", &dto.UpdateListingRequest{Price: &price})
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusPending, resp.Status)
	assert.Equal(t, 48000.0, resp.Price)
	assert.Equal(t, "HR coil", resp.Title)
}

func TestListingService_OwnerChecks(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	f := newListingFixture(models.PlanFree, approvedListing("l1", "seller", true))
	ctx := context.Background()

	title := "stolen"
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := f.svc.Update(ctx, db, "intruder", "l1", &dto.UpdateListingRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrNotListingOwner)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, f.svc.Delete(ctx, db, "intruder", "l1"), apperrors.ErrNotListingOwner)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, f.svc.Delete(ctx, db, "seller", "missing"), apperrors.ErrListingNotFound)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, f.svc.Delete(ctx, db, "seller", "l1"))
	assert.Nil(t, f.listings.get("l1"))
}

func TestListingService_SearchMapsQuery(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	buyerListing := approvedListing("b1", "s1", true)
	buyerListing.ListingRole = models.ListingRoleBuyer
	pending := approvedListing("p1", "s1", true)
	pending.Status = models.ListingStatusPending
	f := newListingFixture(models.PlanFree, approvedListing("s1", "s1", true), buyerListing, pending)

	page, err := f.svc.Search(context.Background(), db, &dto.ListingQuery{
		Type:    "buyers",
		Country: []string{"India", "UAE"},
		Limit:   500,
	})
	require.NoError(t, err)

	filter := f.listings.lastFilter()
	assert.Equal(t, models.ListingRoleBuyer, filter.ListingRole)
	assert.Equal(t, []string{"India", "UAE"}, filter.Countries)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, maxPageLimit, filter.Limit)

	require.Len(t, page.Listings, 1)
	assert.Equal(t, "b1", page.Listings[0].ID)
	assert.EqualValues(t, 1, page.Pagination.Total)
}

func TestListingService_ResponsesCarryCounts(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	f := newListingFixture(models.PlanFree, approvedListing("l1", "seller", true))
	require.NoError(t, f.offers.Create(nil, &models.Offer{ListingID: "l1", BuyerID: "b1", OfferPrice: 1, Status: models.OfferStatusPending}))
	require.NoError(t, f.offers.Create(nil, &models.Offer{ListingID: "l1", BuyerID: "b2", OfferPrice: 2, Status: models.OfferStatusPending}))

	resp, err := f.svc.FindOne(context.Background(), db, "l1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Count.Offers)
	assert.EqualValues(t, 0, resp.Count.Chats)

	_, err = f.svc.FindOne(context.Background(), db, "missing")
	assert.ErrorIs(t, err, apperrors.ErrListingNotFound)
}

func TestListingService_FeatureDefaultsToSevenDays(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	f := newListingFixture(models.PlanFree, approvedListing("l1", "seller", true))

	listing, err := f.svc.Feature(context.Background(), db, "l1", 0)
	require.NoError(t, err)

	require.NotNil(t, listing.FeaturedUntil)
	assert.True(t, listing.IsFeatured)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *listing.FeaturedUntil, time.Minute)
	assert.True(t, f.listings.get("l1").IsFeatured)
}
