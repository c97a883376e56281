package businesses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/sprinklerhub-backend/internal/testsupport"
	"github.com/angelmondragon/sprinklerhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sprinklerhub-backend/pkg/errors"
)

func TestServiceListSummariesSortedByName(t *testing.T) {
	db := testsupport.OpenDB(t)
	testsupport.MustBusiness(t, db, "Zeta Fire", enums.PriceTierT1)
	testsupport.MustBusiness(t, db, "Acme Sprinklers", enums.PriceTierT2)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	out, err := svc.ListSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Acme Sprinklers", out[0].Name)
}

func TestServiceUpdate(t *testing.T) {
	db := testsupport.OpenDB(t)
	biz := testsupport.MustBusiness(t, db, "Acme", enums.PriceTierT2)
	svc, _ := NewService(NewRepository(db))
	ctx := context.Background()

	name := "  Acme Fire Services "
	phone := " "
	out, err := svc.Update(ctx, biz.ID, UpdateBusinessInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Acme Fire Services", out.Name)
	assert.Nil(t, out.Phone)

	empty := ""
	_, err = svc.Update(ctx, biz.ID, UpdateBusinessInput{Name: &empty})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, 999, UpdateBusinessInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceSetPriceTier(t *testing.T) {
	db := testsupport.OpenDB(t)
	biz := testsupport.MustBusiness(t, db, "Acme", enums.PriceTierT3)
	svc, _ := NewService(NewRepository(db))

	out, err := svc.SetPriceTier(context.Background(), biz.ID, enums.PriceTierT1)
	require.NoError(t, err)
	assert.Equal(t, enums.PriceTierT1, out.PriceTier)

	_, err = svc.SetPriceTier(context.Background(), biz.ID, enums.PriceTier("T9"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
