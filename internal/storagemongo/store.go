package storagemongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/ternarybob/mmreplicate/internal/ingesterr"
	"github.com/ternarybob/mmreplicate/internal/model"
)

// Store is the MongoDB-backed Cache.
type Store struct {
	db *mongo.Database
}

// Config is the subset of connection settings the store needs. Field names
// mirror the config file's db.{host,port,name,username,password} table.
type Config struct {
	Host     string
	Port     int
	Name     string
	Username string
	Password string
}

// Connect dials Mongo and authenticates, returning a ready Store. Connect
// and auth failures are fatal at startup (ingesterr.KindCacheConnect /
// KindCacheAuth).
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	uri := fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port)
	opts := options.Client().ApplyURI(uri).
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Local())

	if cfg.Username != "" {
		opts = opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: cfg.Name,
		})
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, ingesterr.New(ingesterr.KindCacheConnect, uri, err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, ingesterr.New(ingesterr.KindCacheAuth, cfg.Name, err)
	}

	return &Store{db: client.Database(cfg.Name)}, nil
}

type document struct {
	ID      string                 `bson:"_id"`
	Type    string                 `bson:"type"`
	SelfURL string                 `bson:"self_url"`
	Attrs   map[string]interface{} `bson:"attrs"`
}

func (s *Store) Get(ctx context.Context, typ, id string) (model.Object, bool, error) {
	coll := s.db.Collection(typ)

	var doc document
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return model.Object{}, false, nil
	}
	if err != nil {
		return model.Object{}, false, ingesterr.New(ingesterr.KindCacheRead, fmt.Sprintf("type=%s id=%s", typ, id), err)
	}

	attrs, _ := fromBSONValue(doc.Attrs).(map[string]interface{})
	return model.Object{ID: doc.ID, Type: doc.Type, SelfURL: doc.SelfURL, Attrs: attrs}, true, nil
}

func (s *Store) Put(ctx context.Context, obj model.Object) error {
	coll := s.db.Collection(obj.Type)

	attrs, _ := toBSONValue(obj.Attrs).(map[string]interface{})
	doc := document{ID: obj.ID, Type: obj.Type, SelfURL: obj.SelfURL, Attrs: attrs}

	opts := options.FindOneAndReplace().SetUpsert(true)
	res := coll.FindOneAndReplace(ctx, bson.M{"_id": obj.ID}, doc, opts)
	if err := res.Err(); err != nil && err != mongo.ErrNoDocuments {
		return ingesterr.New(ingesterr.KindCacheWrite, fmt.Sprintf("type=%s id=%s", obj.Type, obj.ID), err)
	}
	return nil
}

func (s *Store) UpdatedAt(ctx context.Context) (int64, bool, error) {
	var max int64
	found := false

	for _, typ := range model.CacheableTypes {
		coll := s.db.Collection(typ)
		opts := options.FindOne().
			SetSort(bson.D{{Key: "attrs.updated_at", Value: -1}})

		var doc document
		err := coll.FindOne(ctx, bson.M{}, opts).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return 0, false, ingesterr.New(ingesterr.KindCacheRead, typ, err)
		}

		ts, ok := parseUpdatedAt(doc.Attrs)
		if !ok {
			continue
		}
		if !found || ts > max {
			max = ts
			found = true
		}
	}

	return max, found, nil
}

func parseUpdatedAt(attrs map[string]interface{}) (int64, bool) {
	v := fromBSONValue(attrs)
	m, ok := v.(map[string]interface{})
	if !ok {
		return 0, false
	}
	raw, ok := m["updated_at"].(string)
	if !ok {
		return 0, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}
