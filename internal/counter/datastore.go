package counter

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
)

var _ Store = (*DatastoreStore)(nil)

// DatastoreStore maps a table to a kind and a record to an entity named by
// the counter name. Fields are plain int64 properties.
type DatastoreStore struct {
	client    *datastore.Client
	kind      string
	namespace string
	owned     bool
}

// NewDatastoreStore wraps a client owned by the caller.
func NewDatastoreStore(client *datastore.Client, kind, namespace string) *DatastoreStore {
	return &DatastoreStore{client: client, kind: kind, namespace: namespace}
}

func (s *DatastoreStore) key(name string) *datastore.Key {
	key := datastore.NameKey(s.kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *DatastoreStore) Get(ctx context.Context, name string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	var props datastore.PropertyList
	err := s.client.Get(ctx, s.key(name), &props)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("Get", err)
	}
	n, _, err := propertyInt(props, CountField)
	if err != nil {
		return 0, unavailable("Get", err)
	}
	return n, nil
}

// Increment runs the add inside a Datastore transaction. The transaction
// commits only if the entity was not modified since it was read; the client
// reruns the function on contention.
func (s *DatastoreStore) Increment(ctx context.Context, name, field string) (int64, error) {
	if err := checkField(name, field); err != nil {
		return 0, err
	}
	key := s.key(name)

	var n int64
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var props datastore.PropertyList
		if err := tx.Get(key, &props); err != nil && !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		cur, _, err := propertyInt(props, field)
		if err != nil {
			return err
		}
		n = cur + 1
		props = setProperty(props, KeyAttribute, name)
		props = setProperty(props, field, n)
		_, err = tx.Put(key, &props)
		return err
	})
	if err != nil {
		return 0, unavailable("RunInTransaction", err)
	}
	return n, nil
}

func (s *DatastoreStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func propertyInt(props datastore.PropertyList, name string) (int64, bool, error) {
	for _, p := range props {
		if p.Name != name {
			continue
		}
		switch v := p.Value.(type) {
		case int64:
			return v, true, nil
		case float64:
			return int64(v), true, nil
		case nil:
			return 0, true, nil
		default:
			return 0, true, fmt.Errorf("property %s: unexpected type %T", name, p.Value)
		}
	}
	return 0, false, nil
}

func setProperty(props datastore.PropertyList, name string, v interface{}) datastore.PropertyList {
	for i := range props {
		if props[i].Name == name {
			props[i].Value = v
			return props
		}
	}
	return append(props, datastore.Property{Name: name, Value: v})
}
