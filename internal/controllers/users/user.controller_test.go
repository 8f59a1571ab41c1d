package userController

import (
	"context"
	"testing"

	"hostly/config"
	"hostly/internal/models"
	"hostly/internal/repositories"
	"hostly/internal/services"
	"hostly/internal/testutil"
	"hostly/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserController_UpdateProfile(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc, err := services.New(db, config.Config{}, nil)
	require.NoError(t, err)
	repos := repositories.New(db)
	controller := New(repos, svc, config.Config{}, db)
	ctx := context.Background()

	user, err := repos.User.FindOrCreate(ctx, db.SQL, &models.UserProfile{
		BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()},
		Email:         "host@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCurrency, user.BaseCurrency)

	currency := "GBP"
	zone := "Europe/London"
	name := "  Pat Host "
	updated, err := controller.UpdateProfile(ctx, user, &UpdateProfileRequest{
		FullName:     &name,
		BaseCurrency: &currency,
		Timezone:     &zone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pat Host", updated.FullName)
	assert.Equal(t, "GBP", updated.BaseCurrency)
	assert.Equal(t, "Europe/London", updated.Timezone)

	profile, err := controller.GetProfile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "GBP", profile.BaseCurrency)
	assert.Equal(t, "host@example.com", profile.Email)

	bad := []UpdateProfileRequest{
		{BaseCurrency: strPtr("pounds")},
		{Timezone: strPtr("Atlantis/Capital")},
	}
	for _, request := range bad {
		_, err := controller.UpdateProfile(ctx, user, &request)
		assert.ErrorIs(t, err, types.ErrValidation)
	}
}

func strPtr(s string) *string { return &s }
