package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/sales-tracker/internal/ledger"
	"github.com/magabrotheeeer/sales-tracker/internal/migrations"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

const postgresPort nat.Port = "5432/tcp"

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: requires docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(postgresPort)},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(postgresPort),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, postgresPort)
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")
	t.Cleanup(func() {
		_ = storage.Close()
	})

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	return storage
}

// TestDataFactory создаёт тестовые данные через само хранилище.
type TestDataFactory struct {
	storage *Storage
	now     time.Time
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{
		storage: storage,
		now:     time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (f *TestDataFactory) CreateUser(t *testing.T, name, email, role string) *models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func (f *TestDataFactory) CreateSale(t *testing.T, ownerID, client, total, upfront, method, leadDate string) *models.Sale {
	t.Helper()
	totalAmount := decimal.RequireFromString(total)
	upfrontAmount := decimal.RequireFromString(upfront)
	sale, err := ledger.NewSale(models.CreateSaleRequest{
		ClientName:    client,
		TotalAmount:   &totalAmount,
		UpfrontAmount: &upfrontAmount,
		PaymentMethod: method,
		LeadDate:      leadDate,
	}, ownerID, f.now)
	require.NoError(t, err)

	created, err := f.storage.CreateSale(context.Background(), sale)
	require.NoError(t, err)
	return created
}

// TestVerification проверки состояния базы напрямую.
type TestVerification struct {
	storage *Storage
}

func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

func (v *TestVerification) HistoryCount(t *testing.T, saleID string) int {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow(`SELECT COUNT(*) FROM payment_history WHERE sale_id = $1`, saleID).Scan(&count)
	require.NoError(t, err)
	return count
}

func (v *TestVerification) SaleCount(t *testing.T) int {
	t.Helper()
	var count int
	require.NoError(t, v.storage.DB.QueryRow(`SELECT COUNT(*) FROM sales`).Scan(&count))
	return count
}
