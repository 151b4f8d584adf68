package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestion-api/internal/application/dto"
	"github.com/jhoicas/gestion-api/internal/application/usecase"
	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/entity"
	"github.com/jhoicas/gestion-api/internal/infrastructure/memory"
)

type fakeReport struct {
	products    []*entity.Product
	requestedBy string
}

func (f *fakeReport) GenerateStockReport(_ context.Context, products []*entity.Product, requestedBy string, _ time.Time) ([]byte, error) {
	f.products = products
	f.requestedBy = requestedBy
	return []byte("%PDF-fake"), nil
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func TestProductUseCase_CreateValidaPrecio(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewStore().Products(), nil)
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Tornillo", Stock: intPtr(1)})
	assert.Contains(t, validationFields(t, err), "price")

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "Tornillo", Price: decPtr("-1"), Stock: intPtr(1)})
	assert.Contains(t, validationFields(t, err), "price")

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "", Price: decPtr("1"), Stock: intPtr(-2)})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "stock")
}

func TestProductUseCase_CRUD(t *testing.T) {
	uc := usecase.NewProductUseCase(memory.NewStore().Products(), nil)
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Martillo", Price: decPtr("12.50"), Stock: intPtr(0)})
	require.NoError(t, err)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 0, created.Stock)

	updated, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{Stock: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "Martillo", updated.Name)

	got, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	require.NoError(t, uc.Delete(ctx, created.ID))
	assert.ErrorIs(t, uc.Delete(ctx, created.ID), domain.ErrNotFound)
	_, err = uc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_StockReport(t *testing.T) {
	report := &fakeReport{}
	uc := usecase.NewProductUseCase(memory.NewStore().Products(), report)
	ctx := context.Background()
	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Llave", Price: decPtr("3"), Stock: intPtr(4)})
	require.NoError(t, err)

	out, err := uc.StockReport(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	assert.Equal(t, "alice", report.requestedBy)
	assert.Len(t, report.products, 1)

	_, err = usecase.NewProductUseCase(memory.NewStore().Products(), nil).StockReport(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
