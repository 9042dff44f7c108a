// Package event carries view increments over Pub/Sub.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/tckz/go-view-counter/internal/counter"
	"github.com/tckz/go-view-counter/internal/marker"
)

const (
	AttrName  = "name"
	AttrField = "field"
)

// View asks for one increment of Field on counter Name.
type View struct {
	ID    string `json:"id"`
	Name  string `json:"-"`
	Field string `json:"-"`
}

func (v View) Message() (*pubsub.Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return &pubsub.Message{
		Data: b,
		Attributes: map[string]string{
			AttrName:  v.Name,
			AttrField: v.Field,
		},
	}, nil
}

// Parse reads a view event. Missing attributes fall back to views/count.
func Parse(msg *pubsub.Message) (View, error) {
	var v View
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return v, fmt.Errorf("json.Unmarshal: %w", err)
		}
	}
	v.Name = msg.Attributes[AttrName]
	if v.Name == "" {
		v.Name = "views"
	}
	v.Field = msg.Attributes[AttrField]
	if v.Field == "" {
		v.Field = counter.CountField
	}
	return v, nil
}

// Applier increments counters for events, at most once per message id.
type Applier struct {
	Store  counter.Store
	Marker marker.ProcessMarker
}

// Apply returns applied=false without error when msgID was already claimed.
// On a failed increment the claim is released so a redelivery retries it.
func (a *Applier) Apply(ctx context.Context, msgID string, v View) (n int64, applied bool, err error) {
	got, err := a.Marker.Acquire(ctx, msgID)
	if err != nil {
		return 0, false, fmt.Errorf("Acquire: %w", err)
	}
	if !got {
		return 0, false, nil
	}

	n, err = a.Store.Increment(ctx, v.Name, v.Field)
	if err != nil {
		if rerr := a.Marker.Release(ctx, msgID); rerr != nil {
			return 0, false, fmt.Errorf("Increment: %w, Release: %v", err, rerr)
		}
		return 0, false, fmt.Errorf("Increment: %w", err)
	}
	return n, true, nil
}
