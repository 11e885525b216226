package tenantRepo

import (
	"context"
	"fmt"
	"time"

	"bookline/database"
	"bookline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTenantRepo implements TenantRepository using MongoDB.
type MongoTenantRepo struct {
	coll *mongo.Collection
}

// NewMongoTenantRepo constructs a new instance of MongoTenantRepo and
// ensures the webhook-routing index exists.
func NewMongoTenantRepo() TenantRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("tenants")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "whatsapp.phone_number_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})

	return &MongoTenantRepo{coll: coll}
}

// GetByID retrieves a tenant configuration by its ID.
func (repo *MongoTenantRepo) GetByID(tenantID string) (*models.TenantConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var tenant models.TenantConfig
	filter := bson.M{"id": tenantID}
	if err := repo.coll.FindOne(ctx, filter).Decode(&tenant); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("tenant %s not found", tenantID)
		}
		return nil, fmt.Errorf("error fetching tenant %s: %w", tenantID, err)
	}
	return &tenant, nil
}

// GetByPhoneNumberID resolves the tenant that owns a WhatsApp phone number.
// Webhook deliveries carry only the phone_number_id, so this is the routing key.
func (repo *MongoTenantRepo) GetByPhoneNumberID(phoneNumberID string) (*models.TenantConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var tenant models.TenantConfig
	filter := bson.M{"whatsapp.phone_number_id": phoneNumberID, "active": true}
	if err := repo.coll.FindOne(ctx, filter).Decode(&tenant); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no active tenant for phone number id %s", phoneNumberID)
		}
		return nil, fmt.Errorf("error resolving tenant for phone number id %s: %w", phoneNumberID, err)
	}
	return &tenant, nil
}

// Upsert inserts or replaces a tenant configuration.
func (repo *MongoTenantRepo) Upsert(tenant *models.TenantConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"id": tenant.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, filter, tenant, opts); err != nil {
		return fmt.Errorf("error upserting tenant %s: %w", tenant.ID, err)
	}
	return nil
}

// ListActive returns all tenants with an active WhatsApp channel.
func (repo *MongoTenantRepo) ListActive() ([]models.TenantConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := repo.coll.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("error listing active tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []models.TenantConfig
	for cursor.Next(ctx) {
		var t models.TenantConfig
		if err := cursor.Decode(&t); err != nil {
			return nil, fmt.Errorf("error decoding tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return tenants, nil
}
