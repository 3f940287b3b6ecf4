package config

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSection is a test implementation of the Section interface
type mockSection struct {
	id          string
	data        map[string]interface{}
	setErr      error
	validateErr error
	resets      int
}

func (m *mockSection) ID() string                   { return m.id }
func (m *mockSection) Title() string                { return m.id }
func (m *mockSection) Description() string          { return "mock " + m.id }
func (m *mockSection) Data() map[string]interface{} { return m.data }
func (m *mockSection) Validate() error              { return m.validateErr }

func (m *mockSection) Reset() {
	m.resets++
	m.data = map[string]interface{}{}
}

func (m *mockSection) SetData(data map[string]interface{}) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data = data
	return nil
}

// mockStore is a test implementation of the Store interface
type mockStore struct {
	sections map[string]map[string]interface{}
	loadErr  error
	saveErr  error
	saves    int
}

func newMockStore() *mockStore {
	return &mockStore{sections: make(map[string]map[string]interface{})}
}

func (m *mockStore) Load() error { return m.loadErr }

func (m *mockStore) Save() error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	return nil
}

func (m *mockStore) GetSection(sectionID string) (map[string]interface{}, error) {
	if data, ok := m.sections[sectionID]; ok {
		return data, nil
	}
	return map[string]interface{}{}, nil
}

func (m *mockStore) SetSection(sectionID string, data map[string]interface{}) error {
	m.sections[sectionID] = data
	return nil
}

func TestManager_RegisterSection(t *testing.T) {
	m := NewManager(newMockStore())

	require.NoError(t, m.RegisterSection(&mockSection{id: "b"}))
	require.NoError(t, m.RegisterSection(&mockSection{id: "a"}))
	assert.ErrorContains(t, m.RegisterSection(&mockSection{id: "a"}), `section "a" already registered`)

	ids := []string{}
	for _, s := range m.GetSections() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"b", "a"}, ids, "registration order is kept")

	_, ok := m.GetSection("missing")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	t.Run("applies stored data", func(t *testing.T) {
		store := newMockStore()
		store.sections["s"] = map[string]interface{}{"k": "v"}
		section := &mockSection{id: "s"}
		untouched := &mockSection{id: "empty", data: map[string]interface{}{"keep": true}}

		m := NewManager(store)
		require.NoError(t, m.RegisterSection(section))
		require.NoError(t, m.RegisterSection(untouched))
		require.NoError(t, m.LoadAll())

		assert.Equal(t, "v", section.data["k"])
		assert.Equal(t, true, untouched.data["keep"], "sections without stored data keep their defaults")
	})

	t.Run("store error", func(t *testing.T) {
		store := newMockStore()
		store.loadErr = errors.New("disk gone")
		err := NewManager(store).LoadAll()
		assert.ErrorContains(t, err, "failed to load config store: disk gone")
	})

	t.Run("section rejects data", func(t *testing.T) {
		store := newMockStore()
		store.sections["s"] = map[string]interface{}{"k": 1}
		m := NewManager(store)
		require.NoError(t, m.RegisterSection(&mockSection{id: "s", setErr: errors.New("bad type")}))
		assert.ErrorContains(t, m.LoadAll(), "failed to apply section s: bad type")
	})
}

func TestManager_SaveAll(t *testing.T) {
	t.Run("stores every section", func(t *testing.T) {
		store := newMockStore()
		m := NewManager(store)
		require.NoError(t, m.RegisterSection(&mockSection{id: "a", data: map[string]interface{}{"x": 1}}))
		require.NoError(t, m.RegisterSection(&mockSection{id: "b", data: map[string]interface{}{"y": 2}}))

		require.NoError(t, m.SaveAll())
		assert.Equal(t, 1, store.saves)
		assert.Equal(t, 1, store.sections["a"]["x"])
		assert.Equal(t, 2, store.sections["b"]["y"])
	})

	t.Run("validates before saving", func(t *testing.T) {
		store := newMockStore()
		m := NewManager(store)
		require.NoError(t, m.RegisterSection(&mockSection{id: "a", validateErr: errors.New("nope")}))

		assert.ErrorContains(t, m.SaveAll(), "invalid section a: nope")
		assert.Zero(t, store.saves)
		assert.Empty(t, store.sections)
	})

	t.Run("store save error", func(t *testing.T) {
		store := newMockStore()
		store.saveErr = errors.New("read-only")
		m := NewManager(store)
		require.NoError(t, m.RegisterSection(&mockSection{id: "a"}))
		assert.ErrorContains(t, m.SaveAll(), "failed to save config store: read-only")
	})
}

func TestManager_ResetAll(t *testing.T) {
	a, b := &mockSection{id: "a"}, &mockSection{id: "b"}
	m := NewManager(newMockStore())
	require.NoError(t, m.RegisterSection(a))
	require.NoError(t, m.RegisterSection(b))

	m.ResetAll()

	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
}

func TestManager_ConcurrentRegistration(t *testing.T) {
	m := NewManager(newMockStore())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.RegisterSection(&mockSection{id: fmt.Sprintf("s%d", i)})
			_, _ = m.GetSection("s0")
			_ = m.GetSections()
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.GetSections(), 20)
}
