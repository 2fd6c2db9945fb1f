package repository

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// setupTestDB spins up a fresh MongoDB container for one test
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	t.Cleanup(func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("failed to disconnect mongo: %v", err)
		}
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	})
	return client.Database("test_db")
}

func TestMongoRepositories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("sessions", func(t *testing.T) {
		repo := NewMongoSessionRepository(db)

		session := testSession("")
		require.NoError(t, repo.Save(ctx, session))
		assert.Len(t, session.ID, 26, "ULID assigned")

		got, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.UserInfo, got.UserInfo)
		assert.Equal(t, session.Scores, got.Scores)
		assert.Equal(t, domain.SkinTypeDry, got.AIResult.SkinType)
		assert.False(t, got.Paid)

		paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.MarkPaid(ctx, session.ID, paidAt))

		got, err = repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, got.Paid)
		assert.True(t, paidAt.Equal(got.PaidAt))

		_, err = repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.MarkPaid(ctx, "nope", paidAt), domain.ErrNotFound)
	})

	t.Run("session retake keeps payment", func(t *testing.T) {
		repo := NewMongoSessionRepository(db)

		first := testSession("retake-1")
		require.NoError(t, repo.Save(ctx, first))
		paidAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		require.NoError(t, repo.MarkPaid(ctx, "retake-1", paidAt))

		second := testSession("retake-1")
		second.AIResult.SkinType = domain.SkinTypeOily
		second.Recommendations = []string{"Use a gentle foaming cleanser twice a day"}
		require.NoError(t, repo.Save(ctx, second))
		assert.True(t, second.Paid, "saved session reflects the stored payment state")
		assert.True(t, paidAt.Equal(second.PaidAt))

		got, err := repo.GetByID(ctx, "retake-1")
		require.NoError(t, err)
		assert.Equal(t, domain.SkinTypeOily, got.AIResult.SkinType)
		assert.Equal(t, second.Recommendations, got.Recommendations)
		assert.True(t, got.Paid)
	})

	t.Run("products", func(t *testing.T) {
		repo := NewMongoProductRepository(db)

		products := []domain.EnhancedProduct{
			{ID: "a", Name: "Gel", TargetIssues: []string{"dehydration"}, Ingredients: []string{"glycerin"}},
			{ID: "b", Name: "Serum", TargetIssues: []string{"acne"}, Ingredients: []string{"salicylic acid"}},
		}
		require.NoError(t, repo.UpsertMany(ctx, products))

		products[0].Name = "Gel v2"
		require.NoError(t, repo.UpsertMany(ctx, products[:1]))

		got, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Gel v2", got[0].Name)
		assert.Equal(t, []string{"salicylic acid"}, got[1].Ingredients)

		assert.NoError(t, repo.UpsertMany(ctx, nil))
	})

	t.Run("invoices", func(t *testing.T) {
		repo := NewMongoInvoiceRepository(db)

		invoice := &domain.Invoice{
			SessionID: "s1",
			Email:     "ada@example.com",
			Amount:    250000,
			Currency:  "NGN",
			Status:    domain.InvoiceStatusPending,
			Reference: "ref-1",
		}
		require.NoError(t, repo.Create(ctx, invoice))
		require.NotEmpty(t, invoice.ID)

		pending, err := repo.GetPendingBySession(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, invoice.ID, pending.ID)
		assert.Equal(t, int64(250000), pending.Amount)

		require.NoError(t, repo.UpdateStatus(ctx, invoice.ID, domain.InvoiceStatusPaid))

		byRef, err := repo.GetByReference(ctx, "ref-1")
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusPaid, byRef.Status)

		_, err = repo.GetPendingBySession(ctx, "s1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.GetByReference(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
