// Package cached envuelve un ClientDirectory con un cache read-through en memoria.
//
// Los lookups concurrentes del mismo client_id se colapsan con singleflight.
// Sólo se cachean hits: un client inexistente o una falla del directorio
// se consultan de nuevo en el próximo request.
package cached

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

// ClientDirectory es un repository.ClientDirectory con cache.
type ClientDirectory struct {
	next repository.ClientDirectory
	c    *gocache.Cache
	sf   singleflight.Group
}

// NewClientDirectory cachea next durante ttl. Con ttl <= 0 devuelve next sin envolver.
func NewClientDirectory(next repository.ClientDirectory, ttl time.Duration) repository.ClientDirectory {
	if ttl <= 0 {
		return next
	}
	cleanup := ttl * 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &ClientDirectory{next: next, c: gocache.New(ttl, cleanup)}
}

// Get implementa repository.ClientDirectory.
func (d *ClientDirectory) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	if v, ok := d.c.Get(clientID); ok {
		cp := *v.(*repository.Client)
		return &cp, nil
	}

	v, err, _ := d.sf.Do(clientID, func() (interface{}, error) {
		c, err := d.next.Get(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, repository.ErrNotFound
		}
		d.c.SetDefault(clientID, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*repository.Client)
	return &cp, nil
}

// Invalidate saca clientID del cache.
func (d *ClientDirectory) Invalidate(clientID string) { d.c.Delete(clientID) }
