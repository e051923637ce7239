package services

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/events"
	"github.com/yashrajoria/affiliate-storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newKitFixture(t *testing.T, static stubStatic) (*kitServiceImpl, *mockPublisher) {
	t.Helper()
	pub := &mockPublisher{}
	svc := NewKitService(newTestCache(t), static, pub, zap.NewNop()).(*kitServiceImpl)
	svc.now = func() time.Time { return time.UnixMilli(1710000000000) }
	return svc, pub
}

func kitInput() models.KitInput {
	return models.KitInput{
		Name:        "Home office",
		Description: "Desk setup",
		Image:       "https://img.example/kit.png",
		ProductIDs:  []models.ID{"1", " 2 ", "1"},
	}
}

func TestCreateKit(t *testing.T) {
	svc, pub := newKitFixture(t, stubStatic{})

	first := svc.CreateKit(sessionCtx(), kitInput())
	require.True(t, first.Success, first.Message)
	assert.Equal(t, models.ID("1710000000000"), first.Data.ID)
	assert.Equal(t, []models.ID{"1", "2"}, first.Data.ProductIDs)

	second := svc.CreateKit(sessionCtx(), kitInput())
	require.True(t, second.Success)
	assert.Equal(t, models.ID("1710000000001"), second.Data.ID)

	list := svc.ListKits(context.Background())
	require.True(t, list.Success)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, events.KitCreated, pub.events[0].Type)
}

func TestCreateKit_Validation(t *testing.T) {
	svc, _ := newKitFixture(t, stubStatic{})

	in := kitInput()
	in.ProductIDs = nil
	assert.Equal(t, apperrors.KindValidation, svc.CreateKit(sessionCtx(), in).Code)

	in = kitInput()
	in.Image = "not a url"
	assert.Equal(t, apperrors.KindValidation, svc.CreateKit(sessionCtx(), in).Code)

	in = kitInput()
	in.Description = ""
	assert.Equal(t, apperrors.KindValidation, svc.CreateKit(sessionCtx(), in).Code)
}

func TestKitWrites_RequireSession(t *testing.T) {
	svc, pub := newKitFixture(t, stubStatic{kits: []models.Kit{{ID: "77"}}})
	anon := context.Background()

	assert.Equal(t, apperrors.KindUnauthenticated, svc.CreateKit(anon, kitInput()).Code)
	assert.Equal(t, apperrors.KindUnauthenticated, svc.UpdateKit(anon, "77", kitInput()).Code)
	assert.Equal(t, apperrors.KindUnauthenticated, svc.DeleteKit(anon, "77").Code)

	// An anonymous caller learns nothing about the payload.
	bad := kitInput()
	bad.ProductIDs = nil
	assert.Equal(t, apperrors.KindUnauthenticated, svc.CreateKit(anon, bad).Code)
	assert.Equal(t, apperrors.KindUnauthenticated, svc.UpdateKit(anon, "77", bad).Code)

	saved, err := svc.cache.Kits(anon)
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Empty(t, pub.events)

	assert.True(t, svc.CreateKit(sessionCtx(), kitInput()).Success)
}

func TestListKits_IncludesStaticDefaults(t *testing.T) {
	svc, _ := newKitFixture(t, stubStatic{kits: []models.Kit{{ID: "77", Name: "Static"}, {ID: "78", Name: "Other"}}})

	list := svc.ListKits(context.Background())
	require.True(t, list.Success)
	require.Len(t, list.Data, 2)
	assert.Equal(t, models.ID("77"), list.Data[0].ID)

	in := kitInput()
	in.Name = "Edited"
	require.True(t, svc.UpdateKit(sessionCtx(), "77", in).Success)
	created := svc.CreateKit(sessionCtx(), kitInput())
	require.True(t, created.Success)

	list = svc.ListKits(context.Background())
	require.Len(t, list.Data, 3, "the edited copy replaces its static entry")
	assert.Equal(t, models.ID("77"), list.Data[0].ID)
	assert.Equal(t, "Edited", list.Data[0].Name)
	assert.Equal(t, created.Data.ID, list.Data[1].ID)
	assert.Equal(t, models.ID("78"), list.Data[2].ID)
}

func TestUpdateKit(t *testing.T) {
	svc, _ := newKitFixture(t, stubStatic{kits: []models.Kit{{ID: "77", Name: "Static kit"}}})

	created := svc.CreateKit(sessionCtx(), kitInput())
	require.True(t, created.Success)

	in := kitInput()
	in.Name = "Renamed"
	res := svc.UpdateKit(sessionCtx(), created.Data.ID, in)
	require.True(t, res.Success, res.Message)

	res = svc.UpdateKit(sessionCtx(), "77", in)
	require.True(t, res.Success, res.Message)

	list := svc.ListKits(context.Background())
	require.Len(t, list.Data, 2)
	assert.Equal(t, "Renamed", list.Data[0].Name)
	assert.Equal(t, models.ID("77"), list.Data[1].ID)

	res = svc.UpdateKit(sessionCtx(), "missing", in)
	assert.Equal(t, apperrors.KindNotFound, res.Code)
}

func TestDeleteKit(t *testing.T) {
	svc, pub := newKitFixture(t, stubStatic{kits: []models.Kit{{ID: "77"}}})
	created := svc.CreateKit(sessionCtx(), kitInput())
	require.True(t, created.Success)

	res := svc.DeleteKit(sessionCtx(), created.Data.ID)
	require.True(t, res.Success)
	remaining := svc.ListKits(context.Background()).Data
	require.Len(t, remaining, 1, "only the static kit is left")
	assert.Equal(t, models.ID("77"), remaining[0].ID)
	assert.Equal(t, events.KitDeleted, pub.events[len(pub.events)-1].Type)

	assert.Equal(t, apperrors.KindNotFound, svc.DeleteKit(sessionCtx(), created.Data.ID).Code)
	assert.Equal(t, apperrors.KindValidation, svc.DeleteKit(sessionCtx(), "77").Code)
}
