// Package ctxval carries fields recorded while a request is served. A
// middleware wraps the request context once, deeper layers annotate it and
// the request log reads the fields back after the handler returns.
package ctxval

import (
	"context"
	"sync"
)

func Wrap(ctx context.Context) context.Context {
	if _, ok := getClient(ctx); ok {
		// already wrapped
		return ctx
	}
	return context.WithValue(ctx, defKey, &client{fields: map[string]any{}})
}

// Annotate records a field for the request log. A repeated key keeps its
// first position and its latest value. Unwrapped contexts ignore it.
func Annotate(ctx context.Context, key string, value any) {
	c, ok := getClient(ctx)
	if !ok {
		return
	}
	c.annotate(key, value)
}

// Annotations returns the recorded fields as alternating keys and values.
func Annotations(ctx context.Context) []any {
	c, ok := getClient(ctx)
	if !ok {
		return nil
	}
	return c.annotations()
}

type ctxKey struct{}

var defKey = ctxKey{}

type client struct {
	m      sync.Mutex
	keys   []string
	fields map[string]any
}

func (c *client) annotate(key string, value any) {
	c.m.Lock()
	defer c.m.Unlock()
	if _, ok := c.fields[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.fields[key] = value
}

func (c *client) annotations() []any {
	c.m.Lock()
	defer c.m.Unlock()
	kv := make([]any, 0, len(c.keys)*2)
	for _, k := range c.keys {
		kv = append(kv, k, c.fields[k])
	}
	return kv
}

func getClient(ctx context.Context) (*client, bool) {
	c, ok := ctx.Value(defKey).(*client)
	return c, ok
}
