package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"haoshi-console/internal/models"
)

func seed() *Store {
	s := New()
	props := []models.Property{
		{ID: "p1", CommunityName: "威均天翔", Status: "專任"},
		{ID: "p2", CommunityName: "上城捷境", Status: "一般"},
	}
	comms := []models.Community{{ID: "c1", CommunityName: "威均天翔"}}
	users := []models.User{{ID: "u1", Email: "admin@haoshi.com", Role: models.RoleAdmin}}
	s.Replace(Snapshot{Properties: &props, Communities: &comms, Users: &users})
	return s
}

func TestReplace_OnlyPresentCollections(t *testing.T) {
	s := seed()

	props := []models.Property{{ID: "p9"}}
	s.Replace(Snapshot{Properties: &props})

	require.Len(t, s.Properties(), 1)
	require.Len(t, s.Communities(), 1)
	require.Len(t, s.Users(), 1)

	empty := []models.Community{}
	s.Replace(Snapshot{Communities: &empty})
	require.Empty(t, s.Communities())
	require.Len(t, s.Properties(), 1)
}

func TestPatchInPlace(t *testing.T) {
	s := seed()

	s.AddProperty(models.Property{ID: "p3"})
	require.Len(t, s.Properties(), 3)
	require.Equal(t, models.Text("p3"), s.Properties()[2].ID)

	p, err := s.Property("p1")
	require.NoError(t, err)
	p.Notes = "updated"
	require.NoError(t, s.PutProperty(p))
	got, _ := s.Property("p1")
	require.Equal(t, "updated", got.Notes)

	require.ErrorIs(t, s.PutProperty(models.Property{ID: "missing"}), ErrNotFound)

	s.Remove(models.EntityProperty, "p2")
	_, err = s.Property("p2")
	require.ErrorIs(t, err, ErrNotFound)
	require.Len(t, s.Properties(), 2)

	s.Remove(models.EntityProperty, "missing")
	require.Len(t, s.Properties(), 2)
}

func TestReadersGetCopies(t *testing.T) {
	s := New()
	props := []models.Property{{ID: "p1", PhotoPaths: []string{"a.jpg"}}}
	s.Replace(Snapshot{Properties: &props})

	out := s.Properties()
	out[0].PhotoPaths[0] = "mutated"
	out[0].Notes = "mutated"

	p, err := s.Property("p1")
	require.NoError(t, err)
	require.Equal(t, "a.jpg", p.PhotoPaths[0])
	require.Empty(t, p.Notes)
}

func TestLookups(t *testing.T) {
	s := seed()

	c, ok := s.CommunityByName("威均天翔")
	require.True(t, ok)
	require.Equal(t, models.Text("c1"), c.ID)
	_, ok = s.CommunityByName("")
	require.False(t, ok)

	u, ok := s.UserByEmail("ADMIN@haoshi.com")
	require.True(t, ok)
	require.Equal(t, models.RoleAdmin, u.Role)

	require.Equal(t, 2, s.Counts()[models.EntityProperty])
}

func TestConcurrentAccess(t *testing.T) {
	s := seed()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.AddCommunity(models.Community{CommunityName: "x"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Communities()
		}()
	}
	wg.Wait()
	require.Len(t, s.Communities(), 21)
}
