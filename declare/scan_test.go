package declare_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/scopekit/declare"
	"github.com/kbukum/scopekit/errors"
	"github.com/kbukum/scopekit/testutil"
)

type notStartable struct{}

type ordersSuite struct {
	httpd *testutil.Resource
	cache *testutil.AwareResource
}

func keys(decls []declare.Declaration) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.Key)
	}
	return out
}

func TestScan_SharedOrderRootFirst(t *testing.T) {
	pg := testutil.NewResource("pg")
	mq := testutil.NewResource("mq")
	redis := testutil.NewResource("redis")

	base := declare.NewType("Base")
	declare.Shared(base, "postgres", func() *testutil.Resource { return pg })
	child := declare.NewType("Orders").Extends(base)
	declare.Shared(child, "queue", func() *testutil.Resource { return mq })
	declare.Shared(child, "redis", func() *testutil.Resource { return redis })
	declare.PerUnit(child, "httpd", func(s *ordersSuite) *testutil.Resource { return s.httpd })

	decls, err := declare.Scan(declare.KindShared, child, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Base.postgres", "Orders.queue", "Orders.redis"}, keys(decls))
	assert.Same(t, pg, decls[0].Handle)
	assert.Equal(t, "Base", decls[0].Owner)
	assert.Equal(t, declare.KindShared, decls[0].Kind)
}

func TestScan_KeysStableAcrossScans(t *testing.T) {
	typ := declare.NewType("Suite")
	declare.PerUnit(typ, "httpd", func(s *ordersSuite) *testutil.Resource { return s.httpd })

	first, err := declare.Scan(declare.KindPerUnit, typ, &ordersSuite{httpd: testutil.NewResource("a")})
	require.NoError(t, err)
	second, err := declare.Scan(declare.KindPerUnit, typ, &ordersSuite{httpd: testutil.NewResource("b")})
	require.NoError(t, err)

	assert.Equal(t, keys(first), keys(second))
	assert.NotSame(t, first[0].Handle, second[0].Handle)
}

func TestScan_PerUnitReadsLiveInstance(t *testing.T) {
	typ := declare.NewType("Suite")
	declare.PerUnit(typ, "httpd", func(s *ordersSuite) *testutil.Resource { return s.httpd })
	declare.PerUnit(typ, "cache", func(s *ordersSuite) *testutil.AwareResource { return s.cache })

	inst := &ordersSuite{httpd: testutil.NewResource("httpd"), cache: testutil.NewAwareResource("cache")}
	decls, err := declare.Scan(declare.KindPerUnit, typ, inst)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Same(t, inst.httpd, decls[0].Handle)
	assert.Same(t, inst.cache, decls[1].Handle)
}

func TestScan_EmptyType(t *testing.T) {
	decls, err := declare.Scan(declare.KindShared, declare.NewType("Empty"), nil)
	require.NoError(t, err)
	assert.Empty(t, decls)
}

func TestScan_NotStartableNamesDeclaration(t *testing.T) {
	typ := declare.NewType("Suite")
	declare.Shared(typ, "bogus", func() *notStartable { return &notStartable{} })

	_, err := declare.Scan(declare.KindPerUnit, typ, &ordersSuite{})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "bogus")
	assert.Contains(t, err.Error(), "does not implement Startable")
}

func TestScan_NilValueNotInitialized(t *testing.T) {
	typ := declare.NewType("Suite")
	declare.PerUnit(typ, "httpd", func(s *ordersSuite) *testutil.Resource { return s.httpd })

	_, err := declare.Scan(declare.KindPerUnit, typ, &ordersSuite{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotInitialized))
	assert.Contains(t, err.Error(), "needs to be initialized")
}

func TestScan_InstanceRules(t *testing.T) {
	typ := declare.NewType("Suite")
	declare.PerUnit(typ, "httpd", func(s *ordersSuite) *testutil.Resource { return s.httpd })

	_, err := declare.Scan(declare.KindPerUnit, typ, nil)
	assert.True(t, errors.IsConfiguration(err), "per-unit scan requires an instance")

	_, err = declare.Scan(declare.KindShared, typ, &ordersSuite{})
	assert.True(t, errors.IsConfiguration(err), "shared scan rejects an instance")

	_, err = declare.Scan(declare.KindPerUnit, typ, "wrong instance type")
	assert.True(t, errors.IsConfiguration(err))
}

func TestScan_DuplicateName(t *testing.T) {
	r := testutil.NewResource("r")
	typ := declare.NewType("Suite")
	declare.Shared(typ, "db", func() *testutil.Resource { return r })
	declare.Shared(typ, "db", func() *testutil.Resource { return r })

	_, err := declare.Scan(declare.KindShared, typ, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Suite.db")
}

func TestScan_AccessorPanic(t *testing.T) {
	typ := declare.NewType("Suite")
	declare.Shared(typ, "db", func() *testutil.Resource { panic("no access") })

	_, err := declare.Scan(declare.KindShared, typ, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can not access resource declared as db")
}

func TestScan_Cycle(t *testing.T) {
	a := declare.NewType("A")
	b := declare.NewType("B").Extends(a)
	a.Extends(b)

	_, err := declare.Scan(declare.KindShared, b, nil)
	assert.True(t, errors.IsConfiguration(err))
}

func TestScan_NeverStarts(t *testing.T) {
	r := testutil.NewResource("db")
	typ := declare.NewType("Suite")
	declare.Shared(typ, "db", func() *testutil.Resource { return r })

	_, err := declare.Scan(declare.KindShared, typ, nil)
	require.NoError(t, err)
	assert.Zero(t, r.Starts())
	assert.NoError(t, r.Stop(context.Background()))
}

func TestType_Names(t *testing.T) {
	typ := declare.NewType("Suite")
	declare.Shared(typ, "a", func() *testutil.Resource { return nil })
	declare.PerUnit(typ, "b", func(s *ordersSuite) *testutil.Resource { return nil })
	assert.Equal(t, []string{"a"}, typ.Names(declare.KindShared))
	assert.Equal(t, []string{"b"}, typ.Names(declare.KindPerUnit))
}

func TestType_Declares(t *testing.T) {
	base := declare.NewType("Base")
	declare.PerUnit(base, "httpd", func(s *ordersSuite) *testutil.Resource { return s.httpd })
	child := declare.NewType("Child").Extends(base)

	assert.True(t, child.Declares(declare.KindPerUnit))
	assert.False(t, child.Declares(declare.KindShared))
	assert.False(t, declare.NewType("Empty").Declares(declare.KindPerUnit))
}
