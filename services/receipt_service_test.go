package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/services"
)

func newReceiptFixture(books ...*models.Book) (*memSuppliers, *memStock, *memStockLog, services.ReceiptService) {
	suppliers := newMemSuppliers()
	stock := newMemStock()
	log := &memStockLog{}
	svc := services.NewReceiptService(suppliers, newMemBooks(books...), stock, log, &recordingPublisher{}, noMetrics, testLogger())
	return suppliers, stock, log, svc
}

func TestReceipt_IncrementsStock(t *testing.T) {
	a := newBook("Alpha", 10)
	b := newBook("Beta", 10)
	suppliers, stock, log, svc := newReceiptFixture(a, b)
	supplier := &models.Supplier{Name: "Books Ltd", Active: true}
	require.NoError(t, suppliers.Create(context.Background(), supplier))
	stock.set(a.ID, 2)
	staff := uuid.New()

	receipt, err := svc.Receive(context.Background(), staff, &models.CreateReceiptRequest{
		SupplierID: supplier.ID,
		Items: []models.ReceiptItemInput{
			{BookID: a.ID, Quantity: 10, UnitCost: 4.5},
			{BookID: b.ID, Quantity: 3, UnitCost: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 51.0, receipt.TotalCost)
	assert.Equal(t, staff, receipt.StaffID)
	assert.Equal(t, 12, stock.levels[a.ID.String()].Available)
	assert.Equal(t, 3, stock.levels[b.ID.String()].Available)
	require.Len(t, log.receipts, 1)
	assert.Len(t, log.movements, 2)
}

func TestReceipt_Rejections(t *testing.T) {
	a := newBook("Alpha", 10)
	suppliers, stock, _, svc := newReceiptFixture(a)
	inactive := &models.Supplier{Name: "Closed", Active: false}
	require.NoError(t, suppliers.Create(context.Background(), inactive))
	active := &models.Supplier{Name: "Open", Active: true}
	require.NoError(t, suppliers.Create(context.Background(), active))

	items := []models.ReceiptItemInput{{BookID: a.ID, Quantity: 1}}

	_, err := svc.Receive(context.Background(), uuid.New(), &models.CreateReceiptRequest{SupplierID: uuid.New(), Items: items})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.Receive(context.Background(), uuid.New(), &models.CreateReceiptRequest{SupplierID: inactive.ID, Items: items})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.Receive(context.Background(), uuid.New(), &models.CreateReceiptRequest{
		SupplierID: active.ID,
		Items:      []models.ReceiptItemInput{{BookID: uuid.New(), Quantity: 1}},
	})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, stock.levels)
}

func TestReceipt_PersistFailureRevertsStock(t *testing.T) {
	a := newBook("Alpha", 10)
	suppliers, stock, log, svc := newReceiptFixture(a)
	supplier := &models.Supplier{Name: "Books Ltd", Active: true}
	require.NoError(t, suppliers.Create(context.Background(), supplier))
	stock.set(a.ID, 2)
	log.failNext = errors.New("tx aborted")

	_, err := svc.Receive(context.Background(), uuid.New(), &models.CreateReceiptRequest{
		SupplierID: supplier.ID,
		Items:      []models.ReceiptItemInput{{BookID: a.ID, Quantity: 5}},
	})
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Equal(t, 2, stock.levels[a.ID.String()].Available)
}

func TestReceipt_BadLineRejectedBeforeAnyIncrement(t *testing.T) {
	a := newBook("Alpha", 10)
	b := newBook("Beta", 10)
	suppliers, stock, log, svc := newReceiptFixture(a, b)
	supplier := &models.Supplier{Name: "Books Ltd", Active: true}
	require.NoError(t, suppliers.Create(context.Background(), supplier))
	stock.set(a.ID, 2)
	before := stock.adjusts

	_, err := svc.Receive(context.Background(), uuid.New(), &models.CreateReceiptRequest{
		SupplierID: supplier.ID,
		Items: []models.ReceiptItemInput{
			{BookID: a.ID, Quantity: 5},
			{BookID: b.ID, Quantity: 0},
		},
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Contains(t, appErr.Fields, "items[1].quantity")
	assert.Equal(t, before, stock.adjusts)
	assert.Equal(t, 2, stock.levels[a.ID.String()].Available)
	assert.Empty(t, log.receipts)
}
