// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/crewhub/internal/app/store/memstore"
	"github.com/dalemusser/crewhub/internal/app/system/events"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds back-end dependencies for the app. Exactly one of the Mongo
// pair or Memory is set, depending on storage_type.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Memory        *memstore.DB

	// Events is never nil; it is events.Nop when Redis is not configured.
	Events events.Publisher
}
