package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

func poolRows(n int) []services.Row {
	rows := make([]services.Row, n)
	for i := range rows {
		rows[i] = services.Row{
			Line: i + 2,
			Values: map[string]string{
				"Title":      fmt.Sprintf("Product %03d", i),
				"EAN":        fmt.Sprintf("50123456%05d", i),
				"Brand":      "Acme",
				"Sale Price": "9.99",
			},
		}
	}
	return rows
}

func TestTransformPool_PreservesRowOrder(t *testing.T) {
	tr := services.NewRowTransformer(models.JobTypeProduct, map[string]string{
		"title":      "Title",
		"ean":        "EAN",
		"brand":      "Brand",
		"sale_price": "Sale Price",
	}, nil, nil, nil)
	pool := services.NewTransformPool(tr, 4)

	rows := poolRows(50)
	outcomes := pool.Run(context.Background(), rows)

	require.Len(t, outcomes, 50)
	for i, o := range outcomes {
		require.NoError(t, o.Err, "row %d", i)
		require.NotNil(t, o.Product)
		assert.Equal(t, fmt.Sprintf("Product %03d", i), o.Product.Title)
		assert.Equal(t, rows[i].Line, o.Line)
	}
}

func TestTransformPool_KeepsErrorsInPlace(t *testing.T) {
	tr := services.NewRowTransformer(models.JobTypeProduct, map[string]string{
		"title":      "Title",
		"ean":        "EAN",
		"brand":      "Brand",
		"sale_price": "Sale Price",
	}, []string{"Sale Price"}, nil, nil)
	pool := services.NewTransformPool(tr, 3)

	rows := poolRows(6)
	delete(rows[2].Values, "Sale Price")
	delete(rows[5].Values, "Sale Price")

	outcomes := pool.Run(context.Background(), rows)

	require.Len(t, outcomes, 6)
	for i, o := range outcomes {
		if i == 2 || i == 5 {
			require.Error(t, o.Err)
			assert.Nil(t, o.Product)
			continue
		}
		require.NoError(t, o.Err)
	}
}

func TestTransformPool_CancelledContextMarksRemainder(t *testing.T) {
	tr := services.NewRowTransformer(models.JobTypeProduct, map[string]string{
		"title": "Title", "ean": "EAN", "brand": "Brand", "sale_price": "Sale Price",
	}, nil, nil, nil)
	pool := services.NewTransformPool(tr, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes := pool.Run(ctx, poolRows(200))

	cancelled := 0
	for _, o := range outcomes {
		if o.Err == context.Canceled {
			cancelled++
		}
	}
	assert.Greater(t, cancelled, 0, "unfed rows carry the context error")
}

func TestTransformPool_SupplierRows(t *testing.T) {
	tr := services.NewRowTransformer(models.JobTypeSupplier, map[string]string{
		"supplier_name": "Supplier",
		"product_name":  "Product",
		"cost":          "Cost",
	}, nil, nil, nil)
	pool := services.NewTransformPool(tr, 0) // default sizing

	outcomes := pool.Run(context.Background(), []services.Row{{
		Line: 2,
		Values: map[string]string{
			"Supplier": "Acme Wholesale",
			"Product":  "Wireless Mouse",
			"Cost":     "$4.25",
		},
	}})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	require.NotNil(t, outcomes[0].Supplier)
	assert.Equal(t, "Acme Wholesale", outcomes[0].Supplier.SupplierName)
	assert.InDelta(t, 4.25, outcomes[0].Supplier.Offer.Cost, 0.0001)
}
