package version

import (
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	version string
	sets    []int
	err     error
}

func (s *memStore) CurrentVersion() string { return s.version }

func (s *memStore) SetVersion(v int) error {
	if s.err != nil {
		return s.err
	}
	s.sets = append(s.sets, v)
	s.version = strconv.Itoa(v)
	return nil
}

func TestResolveIncrements(t *testing.T) {
	tests := []struct {
		stored string
		want   int
	}{
		{"5", 6},
		{"0", 1},
		{"", 1},
		{"abc", 1},
		{" 41 ", 42},
		{"-3", 1},
	}

	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			store := &memStore{version: tt.stored}
			m := &Manager{Store: store}

			v, err := m.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, []int{tt.want}, store.sets, "version is persisted during Resolve")

			require.NoError(t, m.Commit())
			assert.Len(t, store.sets, 1)
		})
	}
}

func TestResolveExplicit(t *testing.T) {
	store := &memStore{version: "5"}
	explicit := 12
	m := &Manager{Store: store, Explicit: &explicit}

	v, err := m.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 12, v)
	assert.Empty(t, store.sets)

	require.NoError(t, m.Commit())
	assert.Empty(t, store.sets)
}

func TestResolveExplicitNegative(t *testing.T) {
	explicit := -1
	m := &Manager{Store: &memStore{}, Explicit: &explicit}

	_, err := m.Resolve()
	assert.True(t, errors.Is(err, ErrNegative))
}

func TestResolvePersistFailure(t *testing.T) {
	store := &memStore{version: "5", err: errors.New("read-only file system")}
	m := &Manager{Store: store}

	_, err := m.Resolve()
	var pe *PersistError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 6, pe.Version)
	assert.Contains(t, err.Error(), "read-only")
}

func TestResolveDeferred(t *testing.T) {
	store := &memStore{version: "5"}
	m := &Manager{Store: store, Deferred: true}

	v, err := m.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	assert.Empty(t, store.sets)
	assert.Equal(t, "5", store.CurrentVersion())

	require.NoError(t, m.Commit())
	assert.Equal(t, []int{6}, store.sets)

	require.NoError(t, m.Commit())
	assert.Equal(t, []int{6}, store.sets, "commit persists once")
}

func TestCommitBeforeResolve(t *testing.T) {
	m := &Manager{Store: &memStore{}}
	assert.Error(t, m.Commit())
}

func TestParse(t *testing.T) {
	assert.Equal(t, 7, Parse("7"))
	assert.Equal(t, 0, Parse("7.5"))
	assert.Equal(t, 0, Parse(""))
}
