// Package store holds the in-memory record collections the console renders.
//
// Collections are replaced wholesale by a refresh and patched in place by
// create, update and delete. Readers always receive copies.
package store

import (
	"errors"
	"sync"

	"haoshi-console/internal/models"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Snapshot is the payload of a full refresh. A nil collection means the
// source did not send it and the cached one is kept.
type Snapshot struct {
	Properties  *[]models.Property  `json:"properties_for_sale,omitempty"`
	Communities *[]models.Community `json:"communities,omitempty"`
	Users       *[]models.User      `json:"users,omitempty"`
}

// Store owns the three record collections.
type Store struct {
	mu          sync.RWMutex
	properties  []models.Property
	communities []models.Community
	users       []models.User
}

func New() *Store {
	return &Store{}
}

// Replace swaps in every collection present in snap.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Properties != nil {
		s.properties = cloneProperties(*snap.Properties)
	}
	if snap.Communities != nil {
		s.communities = append([]models.Community(nil), *snap.Communities...)
	}
	if snap.Users != nil {
		s.users = append([]models.User(nil), *snap.Users...)
	}
}

// Properties returns a copy of the listing collection in store order.
func (s *Store) Properties() []models.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProperties(s.properties)
}

// Communities returns a copy of the community collection.
func (s *Store) Communities() []models.Community {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Community(nil), s.communities...)
}

// Users returns a copy of the user collection.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User(nil), s.users...)
}

// Counts returns the size of each collection.
func (s *Store) Counts() map[models.Entity]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[models.Entity]int{
		models.EntityProperty:  len(s.properties),
		models.EntityCommunity: len(s.communities),
		models.EntityUser:      len(s.users),
	}
}

func (s *Store) Property(id string) (models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.properties, id, propertyID)
	if i < 0 {
		return models.Property{}, ErrNotFound
	}
	return cloneProperty(s.properties[i]), nil
}

func (s *Store) Community(id string) (models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.communities, id, communityID)
	if i < 0 {
		return models.Community{}, ErrNotFound
	}
	return s.communities[i], nil
}

func (s *Store) User(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.users, id, userID)
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	return s.users[i], nil
}

// CommunityByName joins a listing to its community.
func (s *Store) CommunityByName(name string) (models.Community, bool) {
	if name == "" {
		return models.Community{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.communities {
		if c.CommunityName == name {
			return c, true
		}
	}
	return models.Community{}, false
}

// UserByEmail finds an account by email, ignoring case.
func (s *Store) UserByEmail(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.MatchesEmail(email) {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) AddProperty(p models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties = append(s.properties, cloneProperty(p))
}

func (s *Store) AddCommunity(c models.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities = append(s.communities, c)
}

func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

// PutProperty replaces the listing with the same id.
func (s *Store) PutProperty(p models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.properties, string(p.ID), propertyID)
	if i < 0 {
		return ErrNotFound
	}
	s.properties[i] = cloneProperty(p)
	return nil
}

func (s *Store) PutCommunity(c models.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.communities, string(c.ID), communityID)
	if i < 0 {
		return ErrNotFound
	}
	s.communities[i] = c
	return nil
}

func (s *Store) PutUser(u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.users, string(u.ID), userID)
	if i < 0 {
		return ErrNotFound
	}
	s.users[i] = u
	return nil
}

// Remove deletes a record from the named collection. Missing ids are ignored.
func (s *Store) Remove(entity models.Entity, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch entity {
	case models.EntityProperty:
		s.properties = without(s.properties, id, propertyID)
	case models.EntityCommunity:
		s.communities = without(s.communities, id, communityID)
	case models.EntityUser:
		s.users = without(s.users, id, userID)
	}
}

func propertyID(p *models.Property) string   { return string(p.ID) }
func communityID(c *models.Community) string { return string(c.ID) }
func userID(u *models.User) string           { return string(u.ID) }

func indexOf[T any](items []T, id string, key func(*T) string) int {
	for i := range items {
		if key(&items[i]) == id {
			return i
		}
	}
	return -1
}

func without[T any](items []T, id string, key func(*T) string) []T {
	out := items[:0]
	for i := range items {
		if key(&items[i]) != id {
			out = append(out, items[i])
		}
	}
	return out
}

func cloneProperty(p models.Property) models.Property {
	if p.PhotoPaths != nil {
		p.PhotoPaths = append([]string(nil), p.PhotoPaths...)
	}
	return p
}

func cloneProperties(in []models.Property) []models.Property {
	if in == nil {
		return nil
	}
	out := make([]models.Property, len(in))
	for i, p := range in {
		out[i] = cloneProperty(p)
	}
	return out
}
