package roles_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/roles"
)

func TestCatalogLookup(t *testing.T) {
	c := roles.New(
		roles.Role{Name: "ТУ Объект 1", UID: "UID001"},
		roles.Role{Name: "  ТВ  Линия 110 ", UID: "UID002"},
		roles.Role{Name: "", UID: "ignored"},
		roles.Role{Name: "ИВ Без UID"},
	)

	assert.Equal(t, 3, c.Len())

	uid, ok := c.UID("ТУ Объект 1")
	require.True(t, ok)
	assert.Equal(t, "UID001", uid)

	uid, ok = c.UID("ТВ Линия 110")
	require.True(t, ok, "whitespace is collapsed")
	assert.Equal(t, "UID002", uid)

	_, ok = c.UID("ИВ Без UID")
	assert.False(t, ok, "empty uid is not a match")

	_, ok = c.UID("ТУ Нет")
	assert.False(t, ok)
}

func TestCatalogLastWriteWins(t *testing.T) {
	c := roles.New(
		roles.Role{Name: "ТУ А", UID: "1"},
		roles.Role{Name: "ТУ А", UID: "2"},
	)
	assert.Equal(t, 1, c.Len())
	uid, _ := c.UID("ТУ А")
	assert.Equal(t, "2", uid)
}

func TestNormalizeComposesUnicode(t *testing.T) {
	// "й" decomposed into и + combining breve
	decomposed := "ТУ Кра\u0438\u0306"
	composed := "ТУ Кра\u0439"
	assert.Equal(t, roles.Normalize(composed), roles.Normalize(decomposed))

	c := roles.New(roles.Role{Name: composed, UID: "K1"})
	uid, ok := c.UID(decomposed)
	require.True(t, ok)
	assert.Equal(t, "K1", uid)
}

func TestByCategory(t *testing.T) {
	c := roles.New(
		roles.Role{Name: "ТВ Б", UID: "2"},
		roles.Role{Name: "ТУ А", UID: "1"},
		roles.Role{Name: "ТВ А", UID: "3"},
		roles.Role{Name: "Прочее", UID: "4"},
	)
	tv := c.ByCategory(reconcile.TV)
	require.Len(t, tv, 2)
	assert.Equal(t, "ТВ А", tv[0].Name)
	assert.Len(t, c.ByCategory(reconcile.IV), 0)
}

func TestParse(t *testing.T) {
	t.Run("list shape", func(t *testing.T) {
		c, err := roles.Parse([]byte("roles:\n  - name: ТУ Объект 1\n    uid: UID001\n  - name: ИВ Связь\n    uid: UID009\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, "ИВ Связь", c.List()[1].Name)
	})

	t.Run("flat shape", func(t *testing.T) {
		c, err := roles.Parse([]byte("ТУ Объект 1: UID001\nТВ Линия: UID002\n"))
		require.NoError(t, err)
		uid, ok := c.UID("ТВ Линия")
		require.True(t, ok)
		assert.Equal(t, "UID002", uid)
	})

	t.Run("json", func(t *testing.T) {
		c, err := roles.Parse([]byte(`{"roles":[{"name":"ТУ А","uid":"1"}]}`))
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := roles.Parse([]byte("roles: [\n"))
		require.Error(t, err)
	})
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"roles.yaml": {Data: []byte("ТУ А: U1\n")},
	}
	c, err := roles.LoadFS(fsys, "roles.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = roles.LoadFS(fsys, "missing.yaml")
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestCatalogSatisfiesResolveUIDs(t *testing.T) {
	analysis, err := reconcile.BuildAnalysisResult(reconcile.RawAnalysis{
		PendingMatches: reconcile.PendingMatches{
			TU: []reconcile.PendingMatch{{Original: "ПС", Candidates: []reconcile.Candidate{{RoleName: "ТУ ПС", Score: 90}}}},
		},
	})
	require.NoError(t, err)
	state := reconcile.NewState(analysis)
	require.NoError(t, state.RecordChoice(reconcile.TU, "ПС", "ТУ ПС"))

	rm := reconcile.ResolveUIDs(reconcile.ResolveMapping(state), roles.New(roles.Role{Name: "ТУ ПС", UID: "U-PS"}))
	got, _ := rm.Get(reconcile.TU, "ПС")
	assert.Equal(t, "U-PS", got.UID)
}
