package customerRepo

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

// MongoCustomerRepo implements CustomerRepository using MongoDB.
type MongoCustomerRepo struct {
	coll *mongo.Collection
}

// NewMongoCustomerRepo constructs a new instance of MongoCustomerRepo.
func NewMongoCustomerRepo() CustomerRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("customers")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "phone_number", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})

	return &MongoCustomerRepo{coll: coll}
}

// GetByPhone retrieves a customer by phone number, scoped to a tenant.
// Returns mongo.ErrNoDocuments when the customer is unknown.
func (repo *MongoCustomerRepo) GetByPhone(tenantID, phoneNumber string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var customer models.Customer
	filter := bson.M{"tenant_id": tenantID, "phone_number": phoneNumber}
	if err := repo.coll.FindOne(ctx, filter).Decode(&customer); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching customer %s: %w", phoneNumber, err)
	}
	return &customer, nil
}

// Upsert inserts or replaces a customer profile.
func (repo *MongoCustomerRepo) Upsert(customer *models.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"tenant_id": customer.TenantID, "phone_number": customer.PhoneNumber}
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, filter, customer, opts); err != nil {
		return fmt.Errorf("error upserting customer %s: %w", customer.PhoneNumber, err)
	}
	return nil
}

// SetField records a single profile field the assistant learned mid-conversation,
// creating the customer document if needed.
func (repo *MongoCustomerRepo) SetField(tenantID, phoneNumber, key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "phone_number": phoneNumber}
	var update bson.M
	if key == "full_name" {
		update = bson.M{
			"$set":         bson.M{"full_name": value},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{
			"$set":         bson.M{"data." + key: value},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		}
	}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("error setting field %s for customer %s: %w", key, phoneNumber, err)
	}
	return nil
}
