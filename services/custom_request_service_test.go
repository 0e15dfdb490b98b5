package services

import (
	"context"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestFixture(t *testing.T) (*CustomRequestService, *MockStorageService, *MemoryAuditLog) {
	t.Helper()
	db := setupTestDB(t)
	storage := NewMockStorageService()
	audit := NewMemoryAuditLog()
	svc := NewCustomRequestService(db, NewImageService(storage, testLogger()), NewLocalLocker(), audit, imagesBucket, testLogger())
	return svc, storage, audit
}

func customer() *models.Profile {
	return &models.Profile{Auth0ID: buyer, Name: "Ada Obi", Email: "ada@example.com", Role: models.RoleCustomer}
}

func TestSubmitCustomRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("logged in with reference images", func(t *testing.T) {
		svc, storage, _ := newRequestFixture(t)

		req, err := svc.Submit(ctx, customer(), CustomRequestInput{
			Description:     "  Adire pattern on the back  ",
			ShirtColor:      "Navy",
			ReferenceImages: []*multipart.FileHeader{createTestFileHeader(t, "ref.jpg", []byte("jpeg-ish"))},
		})
		require.NoError(t, err)

		assert.Equal(t, models.RequestUnderReview, req.Status)
		assert.Equal(t, "Adire pattern on the back", req.Description)
		require.NotNil(t, req.UserID)
		assert.Equal(t, buyer, *req.UserID)
		assert.Equal(t, "Ada Obi", req.UserName)
		require.Len(t, req.ReferenceImages, 1)
		assert.True(t, strings.HasPrefix(req.ReferenceImages[0], "https://storage.test/"+imagesBucket+"/custom_requests/"+buyer+"/"))
		assert.Equal(t, 1, storage.Count())
		assert.Empty(t, req.Mockups)
	})

	t.Run("guest with contact details", func(t *testing.T) {
		svc, _, _ := newRequestFixture(t)

		req, err := svc.Submit(ctx, nil, CustomRequestInput{
			Name:          "Guest",
			Email:         "guest@example.com",
			Description:   "Something like this tee but red",
			BaseProductID: "p1",
		})
		require.NoError(t, err)
		assert.Nil(t, req.UserID)
		assert.Equal(t, "guest@example.com", req.UserEmail)
		require.NotNil(t, req.BaseProductID)
		assert.Equal(t, "p1", *req.BaseProductID)
	})

	tests := []struct {
		name     string
		profile  *models.Profile
		input    CustomRequestInput
		wantCode string
	}{
		{"guest without email", nil, CustomRequestInput{Name: "Guest", Description: "x"}, "MISSING_CONTACT"},
		{"missing description", customer(), CustomRequestInput{Description: "   "}, "MISSING_DESCRIPTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newRequestFixture(t)
			_, err := svc.Submit(ctx, tt.profile, tt.input)
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantCode, se.Code)
		})
	}

	t.Run("bad reference image uploads nothing", func(t *testing.T) {
		svc, storage, _ := newRequestFixture(t)
		_, err := svc.Submit(ctx, customer(), CustomRequestInput{
			Description: "x",
			ReferenceImages: []*multipart.FileHeader{
				createTestFileHeader(t, "ok.png", []byte("png")),
				createTestFileHeader(t, "bad.gif", []byte("gif")),
			},
		})
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Zero(t, storage.Count(), "Uploads already made are removed")
	})
}

func TestMockupWorkflow(t *testing.T) {
	svc, _, audit := newRequestFixture(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, customer(), CustomRequestInput{Description: "Owambe tee"})
	require.NoError(t, err)

	withMockup, err := svc.AddMockup(ctx, adminActor, req.ID, MockupInput{
		Name:  "Draft A",
		Price: decimal.NewFromInt(15000),
		URL:   "https://img.example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestMockupReady, withMockup.Status)
	require.Len(t, withMockup.Mockups, 1)
	assert.True(t, strings.HasPrefix(withMockup.Mockups[0].ID, "mockup-"+req.ID+"-"))
	require.NotNil(t, withMockup.FinalPrice)
	assert.True(t, decimal.NewFromInt(15000).Equal(*withMockup.FinalPrice))

	second, err := svc.AddMockup(ctx, adminActor, req.ID, MockupInput{
		Name:  "Draft B",
		Price: decimal.NewFromInt(17500),
		URL:   "https://img.example.com/b.png",
	})
	require.NoError(t, err)
	require.Len(t, second.Mockups, 2)
	assert.NotEqual(t, second.Mockups[0].ID, second.Mockups[1].ID)
	assert.True(t, decimal.NewFromInt(17500).Equal(*second.FinalPrice), "The newest mockup sets the final price")

	// The owner can buy a mockup; others cannot see the request
	_, mockup, err := svc.ResolveMockup(ctx, buyer, req.ID, second.Mockups[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft A", mockup.Name)

	_, _, err = svc.ResolveMockup(ctx, "auth0|other", req.ID, second.Mockups[0].ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, _, err = svc.ResolveMockup(ctx, buyer, req.ID, "mockup-missing")
	assert.Equal(t, KindNotFound, KindOf(err))

	trimmed, err := svc.DeleteMockup(ctx, adminActor, req.ID, second.Mockups[0].ID)
	require.NoError(t, err)
	require.Len(t, trimmed.Mockups, 1)
	assert.Equal(t, "Draft B", trimmed.Mockups[0].Name)

	_, err = svc.DeleteMockup(ctx, adminActor, req.ID, "mockup-missing")
	assert.Equal(t, KindNotFound, KindOf(err))

	stored, err := svc.Get(ctx, adminActor, true, req.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Mockups, 1)

	added := 0
	for _, e := range audit.Entries() {
		if e.Action == AuditRequestMockupAdded {
			added++
		}
	}
	assert.Equal(t, 2, added)
}

func TestGuestRequestClaimedOnSignIn(t *testing.T) {
	svc, _, _ := newRequestFixture(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, nil, CustomRequestInput{Name: "Ada", Email: "Ada@Example.com", Description: "Eyo masquerade on navy"})
	require.NoError(t, err)
	require.Nil(t, req.UserID)
	_, err = svc.AddMockup(ctx, adminActor, req.ID, MockupInput{Name: "Eyo Draft", Price: decimal.NewFromInt(19000), URL: "https://img.example.com/eyo.png"})
	require.NoError(t, err)

	// Signed in, but under a different email
	require.NoError(t, svc.db.Create(&models.Profile{Auth0ID: "auth0|other", Name: "Tunde", Email: "tunde@example.com", Role: models.RoleCustomer}).Error)
	_, err = svc.Get(ctx, "auth0|other", false, req.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	require.NoError(t, svc.db.Create(customer()).Error)

	_, mockup, err := svc.ResolveMockup(ctx, buyer, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Eyo Draft", mockup.Name)

	stored, err := svc.Get(ctx, buyer, false, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, buyer, *stored.UserID)
	assert.Equal(t, "Ada", stored.UserName)

	mine, err := svc.ListMine(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	// Once claimed it stays with the claimant
	_, err = svc.Get(ctx, "auth0|other", false, req.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListMineClaimsGuestRequests(t *testing.T) {
	svc, _, _ := newRequestFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.db.Create(customer()).Error)

	_, err := svc.Submit(ctx, nil, CustomRequestInput{Name: "Ada", Email: "ada@example.com", Description: "Before signing up"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, nil, CustomRequestInput{Name: "Tunde", Email: "tunde@example.com", Description: "Someone else"})
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Before signing up", mine[0].Description)

	all, err := svc.ListAll(ctx, "")
	require.NoError(t, err)
	guests := 0
	for _, r := range all {
		if r.UserID == nil {
			guests++
		}
	}
	assert.Equal(t, 1, guests)
}

func TestAddMockupValidation(t *testing.T) {
	svc, _, _ := newRequestFixture(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, customer(), CustomRequestInput{Description: "x"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input MockupInput
	}{
		{"missing name", MockupInput{Price: decimal.NewFromInt(1), URL: "https://x"}},
		{"missing url", MockupInput{Name: "A", Price: decimal.NewFromInt(1)}},
		{"zero price", MockupInput{Name: "A", URL: "https://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddMockup(ctx, adminActor, req.ID, tt.input)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}

	_, err = svc.AddMockup(ctx, adminActor, "ghost", MockupInput{Name: "A", Price: decimal.NewFromInt(1), URL: "https://x"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestAddMockupWithUploadedImage(t *testing.T) {
	svc, storage, _ := newRequestFixture(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, customer(), CustomRequestInput{Description: "x"})
	require.NoError(t, err)

	updated, err := svc.AddMockup(ctx, adminActor, req.ID, MockupInput{
		Name:  "Draft",
		Price: decimal.NewFromInt(9000),
		Image: createTestFileHeader(t, "draft.png", []byte("png")),
	})
	require.NoError(t, err)
	assert.Contains(t, updated.Mockups[0].URL, "/mockups/"+req.ID+"/")
	assert.Equal(t, 1, storage.Count())
}

func TestCustomRequestUpdateStatus(t *testing.T) {
	svc, _, _ := newRequestFixture(t)
	ctx := context.Background()

	req, err := svc.Submit(ctx, customer(), CustomRequestInput{Description: "x"})
	require.NoError(t, err)

	price := decimal.NewFromInt(20000)
	inProgress, err := svc.UpdateStatus(ctx, adminActor, req.ID, models.RequestInProgress, &price)
	require.NoError(t, err)
	assert.Equal(t, models.RequestInProgress, inProgress.Status)
	assert.Nil(t, inProgress.FinalPrice, "The final price is only set on completion")

	_, err = svc.UpdateStatus(ctx, adminActor, req.ID, models.RequestMockupReady, nil)
	assert.Equal(t, KindRule, KindOf(err), "Mockup Ready needs a mockup")

	done, err := svc.UpdateStatus(ctx, adminActor, req.ID, models.RequestCompleted, &price)
	require.NoError(t, err)
	require.NotNil(t, done.FinalPrice)
	assert.True(t, price.Equal(*done.FinalPrice))

	_, err = svc.UpdateStatus(ctx, adminActor, req.ID, "Shipped", nil)
	assert.Equal(t, KindValidation, KindOf(err))

	// Closed requests cannot be bought
	_, _, err = svc.ResolveMockup(ctx, buyer, req.ID, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestListCustomRequests(t *testing.T) {
	svc, _, _ := newRequestFixture(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, customer(), CustomRequestInput{Description: "mine"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, nil, CustomRequestInput{Name: "G", Email: "g@example.com", Description: "guest"})
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Description)

	_, err = svc.ListMine(ctx, "")
	assert.ErrorIs(t, err, ErrAuthRequired)

	all, err := svc.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	review, err := svc.ListAll(ctx, models.RequestUnderReview)
	require.NoError(t, err)
	assert.Len(t, review, 2)

	_, err = svc.ListAll(ctx, "Bogus")
	assert.Equal(t, KindValidation, KindOf(err))
}
