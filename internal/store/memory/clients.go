package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/validation"
)

// ClientDirectory es un directorio de clients en memoria.
type ClientDirectory struct {
	mu      sync.RWMutex
	clients map[string]*repository.Client
}

// NewClientDirectory crea el directorio con clients iniciales.
func NewClientDirectory(clients ...repository.Client) *ClientDirectory {
	d := &ClientDirectory{clients: make(map[string]*repository.Client, len(clients))}
	for _, c := range clients {
		d.Put(c)
	}
	return d
}

// LoadClients lee un YAML `clients: [...]` y valida cada entrada.
func LoadClients(path string) (*ClientDirectory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}
	var doc struct {
		Clients []repository.Client `yaml:"clients"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse clients file: %w", err)
	}

	seen := make(map[string]bool, len(doc.Clients))
	for i, c := range doc.Clients {
		if !validation.ValidClientID(c.ClientID) {
			return nil, fmt.Errorf("client #%d: %w: client_id %q", i, repository.ErrInvalidInput, c.ClientID)
		}
		if seen[c.ClientID] {
			return nil, fmt.Errorf("client %q: %w: duplicado", c.ClientID, repository.ErrInvalidInput)
		}
		seen[c.ClientID] = true
		if c.AuthMethod == "" {
			doc.Clients[i].AuthMethod = repository.AuthMethodClientSecretBasic
		} else if !c.AuthMethod.Valid() {
			return nil, fmt.Errorf("client %q: %w: auth method %q", c.ClientID, repository.ErrInvalidInput, c.AuthMethod)
		}
	}
	return NewClientDirectory(doc.Clients...), nil
}

// Put agrega o reemplaza un client.
func (d *ClientDirectory) Put(c repository.Client) {
	d.mu.Lock()
	d.clients[c.ClientID] = &c
	d.mu.Unlock()
}

// Get implementa repository.ClientDirectory. Devuelve una copia.
func (d *ClientDirectory) Get(_ context.Context, clientID string) (*repository.Client, error) {
	d.mu.RLock()
	c, ok := d.clients[clientID]
	d.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Len cuenta los clients.
func (d *ClientDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.clients)
}
