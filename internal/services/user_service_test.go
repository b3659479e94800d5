package services

import (
	"context"
	"testing"

	"metalhub_backend/internal/models"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/internal/testutil"
	"metalhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetMe(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	svc := NewUserService(newFakeUserRepo(newUser("u1", models.UserRoleSeller)), newFakeProfileRepo(), &fakeMembershipService{plan: models.PlanSilver})

	me, err := svc.GetMe(context.Background(), db, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	require.NotNil(t, me.Membership)
	assert.Equal(t, models.PlanSilver, me.Membership.Plan)

	_, err = svc.GetMe(context.Background(), db, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserService_UpdateMeCreatesMissingProfile(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	profiles := newFakeProfileRepo()
	svc := NewUserService(newFakeUserRepo(newUser("u1", models.UserRoleSeller)), profiles, &fakeMembershipService{plan: models.PlanFree})
	ctx := context.Background()

	company := "Shakti Metals"
	profile, err := svc.UpdateMe(ctx, db, "u1", &dto.UpdateProfileRequest{CompanyName: &company})
	require.NoError(t, err)
	assert.Equal(t, "Shakti Metals", profile.CompanyName)

	city := "Jamshedpur"
	profile, err = svc.UpdateMe(ctx, db, "u1", &dto.UpdateProfileRequest{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Shakti Metals", profile.CompanyName)
	assert.Equal(t, "Jamshedpur", profile.City)

	stored, err := profiles.FindByUserID(nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jamshedpur", stored.City)
}
