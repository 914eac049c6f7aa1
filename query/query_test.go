/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querydsl/database"
	"github.com/tomoncle/querydsl/entity"
	"github.com/tomoncle/querydsl/internal/testdb"
	"github.com/tomoncle/querydsl/query"
	"github.com/tomoncle/querydsl/repository"
	"github.com/uptrace/bun"
)

var m = entity.QMember

type fixture struct {
	db      *bun.DB
	f       *query.Factory
	members repository.Repository[entity.Member]
	teamA   *entity.Team
	teamB   *entity.Team
}

// setup persists teamA{member1:10, member2:20} and teamB{member3:30, member4:40}.
func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testdb.Open(t)

	teams := repository.NewRepository[entity.Team](db, entity.QTeam.EntityPath)
	members := repository.NewRepository[entity.Member](db, m.EntityPath)

	teamA, teamB := entity.NewTeam("teamA"), entity.NewTeam("teamB")
	require.NoError(t, teams.Persist(ctx, teamA, teamB))
	require.NoError(t, members.Persist(ctx,
		entity.NewMemberInTeam("member1", 10, teamA),
		entity.NewMemberInTeam("member2", 20, teamA),
		entity.NewMemberInTeam("member3", 30, teamB),
		entity.NewMemberInTeam("member4", 40, teamB),
	))

	return &fixture{db: db, f: query.NewFactory(db), members: members, teamA: teamA, teamB: teamB}
}

func names(rows []*entity.Member) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name()
	}
	return out
}

func TestSelectFromByUsername(t *testing.T) {
	fx := setup(t)

	found, err := query.SelectFrom(fx.f, m.EntityPath).
		Where(m.Username.Eq("member1")).
		FetchOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "member1", found.Name())
	assert.Equal(t, 10, found.Age)
	require.NotNil(t, found.TeamID)
	assert.Equal(t, fx.teamA.ID, *found.TeamID)
}

func TestSelectFromProjection(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	viaSelect, err := query.Select(fx.f, m.EntityPath).From(m.EntityPath).
		Where(m.Username.Eq("member2")).
		FetchOne(ctx)
	require.NoError(t, err)

	viaSelectFrom, err := query.SelectFrom(fx.f, m.EntityPath).
		Where(m.Username.Eq("member2")).
		FetchOne(ctx)
	require.NoError(t, err)

	require.NotNil(t, viaSelect)
	assert.Equal(t, viaSelectFrom.ID, viaSelect.ID)
}

func TestWherePositionalAnd(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	base := query.SelectFrom(fx.f, m.EntityPath)

	positional, err := base.Where(m.Username.Eq("member1"), m.Age.Eq(10)).FetchOne(ctx)
	require.NoError(t, err)
	chained, err := base.Where(m.Username.Eq("member1").And(m.Age.Eq(10))).FetchOne(ctx)
	require.NoError(t, err)

	require.NotNil(t, positional)
	require.NotNil(t, chained)
	assert.Equal(t, chained.ID, positional.ID)

	none, err := base.Where(m.Username.Eq("member1"), m.Age.Eq(20)).FetchOne(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFetchReturnsEveryPersistedRow(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	q := query.SelectFrom(fx.f, m.EntityPath)

	rows, err := q.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	count, err := q.FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestFetchIsIdempotent(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	q := query.SelectFrom(fx.f, m.EntityPath).OrderBy(m.Age.Asc())

	first, err := q.Fetch(ctx)
	require.NoError(t, err)
	second, err := q.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, names(first), names(second))
}

func TestFetchFirst(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	oldest, err := query.SelectFrom(fx.f, m.EntityPath).OrderBy(m.Age.Desc()).FetchFirst(ctx)
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, "member4", oldest.Name())

	none, err := query.SelectFrom(fx.f, m.EntityPath).Where(m.Age.Gt(100)).FetchFirst(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFetchOneWithManyMatches(t *testing.T) {
	fx := setup(t)

	found, err := query.SelectFrom(fx.f, m.EntityPath).
		Where(m.TeamID.Eq(fx.teamA.ID)).
		FetchOne(context.Background())
	assert.Nil(t, found)
	assert.ErrorIs(t, err, query.ErrTooManyResults)
}

func TestFetchOneWithoutMatch(t *testing.T) {
	fx := setup(t)

	found, err := query.SelectFrom(fx.f, m.EntityPath).
		Where(m.Username.Eq("nobody")).
		FetchOne(context.Background())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFetchResultsPaging(t *testing.T) {
	fx := setup(t)

	results, err := query.SelectFrom(fx.f, m.EntityPath).
		OrderBy(m.Username.Desc()).
		Offset(1).
		Limit(2).
		FetchResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, results.Total)
	assert.Equal(t, 2, results.Limit)
	assert.Equal(t, 1, results.Offset)
	assert.Equal(t, []string{"member3", "member2"}, names(results.Results))
	assert.True(t, results.HasMore())
}

func TestFetchResultsWithoutMatch(t *testing.T) {
	fx := setup(t)

	results, err := query.SelectFrom(fx.f, m.EntityPath).
		Where(m.Age.Gt(100)).
		Limit(10).
		FetchResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, results.Total)
	assert.NotNil(t, results.Results)
	assert.True(t, results.IsEmpty())
}

func TestOffsetWithoutLimit(t *testing.T) {
	fx := setup(t)

	rows, err := query.SelectFrom(fx.f, m.EntityPath).
		OrderBy(m.Age.Asc()).
		Offset(3).
		Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"member4"}, names(rows))
}

func TestLimitZeroFetchesNothing(t *testing.T) {
	fx := setup(t)

	rows, err := query.SelectFrom(fx.f, m.EntityPath).Limit(0).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestOrderByNullsLast(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	require.NoError(t, fx.members.Persist(ctx,
		entity.NewUnnamedMember(100),
		entity.NewMemberWithAge("member5", 100),
		entity.NewMemberWithAge("member6", 100),
	))

	rows, err := query.SelectFrom(fx.f, m.EntityPath).
		Where(m.Age.Eq(100)).
		OrderBy(m.Age.Desc(), m.Username.Asc().NullsLast()).
		Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "member5", rows[0].Name())
	assert.Equal(t, "member6", rows[1].Name())
	assert.Nil(t, rows[2].Username)
}

func TestOrderByNullsFirst(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	require.NoError(t, fx.members.Persist(ctx,
		entity.NewMemberWithAge("member5", 100),
		entity.NewUnnamedMember(100),
	))

	rows, err := query.SelectFrom(fx.f, m.EntityPath).
		Where(m.Age.Eq(100)).
		OrderBy(m.Username.Desc().NullsFirst()).
		Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Username)
	assert.Equal(t, "member5", rows[1].Name())
}

func TestOrderRendering(t *testing.T) {
	fx := setup(t)

	sql := query.SelectFrom(fx.f, m.EntityPath).
		OrderBy(m.Age.Desc(), m.Username.Asc().NullsLast()).
		String()
	assert.Contains(t, sql, `ORDER BY "m"."age" DESC, CASE WHEN "m"."username" IS NULL THEN 1 ELSE 0 END ASC, "m"."username" ASC`)
}

func TestNullOperandIsRejected(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	q := query.SelectFrom(fx.f, m.EntityPath).Where(m.Username.EqOpt(nil))

	_, err := q.Fetch(ctx)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	_, err = q.FetchOne(ctx)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	_, err = q.FetchResults(ctx)
	assert.ErrorIs(t, err, query.ErrInvalidPredicate)

	name := "member3"
	found, err := query.SelectFrom(fx.f, m.EntityPath).Where(m.Username.EqOpt(&name)).FetchOne(ctx)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 30, found.Age)
}

func TestNegativePaging(t *testing.T) {
	fx := setup(t)

	_, err := query.SelectFrom(fx.f, m.EntityPath).Offset(-1).Fetch(context.Background())
	assert.ErrorIs(t, err, query.ErrInvalidPaging)
	_, err = query.SelectFrom(fx.f, m.EntityPath).Limit(-5).FetchCount(context.Background())
	assert.ErrorIs(t, err, query.ErrInvalidPaging)
}

func TestDraftsBranchIndependently(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	base := query.SelectFrom(fx.f, m.EntityPath).Where(m.Age.Goe(20))
	narrowed := base.Where(m.Age.Lt(40))
	paged := base.OrderBy(m.Age.Asc()).Limit(1)

	baseCount, err := base.FetchCount(ctx)
	require.NoError(t, err)
	narrowedCount, err := narrowed.FetchCount(ctx)
	require.NoError(t, err)
	pagedRows, err := paged.Fetch(ctx)
	require.NoError(t, err)
	baseRows, err := base.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, baseCount)
	assert.Equal(t, 2, narrowedCount)
	assert.Equal(t, []string{"member2"}, names(pagedRows))
	assert.Len(t, baseRows, 3)
}

func TestPredicateOperators(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	require.NoError(t, fx.members.Persist(ctx, entity.NewUnnamedMember(50)))

	count := func(p query.Predicate[entity.Member]) int {
		t.Helper()
		n, err := query.SelectFrom(fx.f, m.EntityPath).Where(p).FetchCount(ctx)
		require.NoError(t, err)
		return n
	}

	assert.Equal(t, 4, count(m.Username.StartsWith("member")))
	assert.Equal(t, 1, count(m.Username.Contains("er3")))
	assert.Equal(t, 0, count(m.Username.StartsWith("member_")))
	assert.Equal(t, 4, count(m.Username.Like("mem%")))
	assert.Equal(t, 2, count(m.Username.In("member1", "member3", "ghost")))
	assert.Equal(t, 0, count(m.Username.In()))
	assert.Equal(t, 2, count(m.Username.NotIn("member1", "member2")))
	assert.Equal(t, 1, count(m.Username.IsNull()))
	assert.Equal(t, 4, count(m.Username.IsNotNull()))
	assert.Equal(t, 2, count(m.Age.Between(20, 30)))
	assert.Equal(t, 3, count(m.Age.Loe(30)))
	assert.Equal(t, 3, count(m.Age.Ne(20).And(m.Username.IsNotNull())))
	assert.Equal(t, 2, count(m.Age.Lt(20).Or(m.Age.Gt(40))))
	assert.Equal(t, 3, count(m.Age.Lt(20).Or(m.Age.Gt(40)).Not()))
	assert.Equal(t, 2, count(query.AnyOf(m.Username.Eq("member1"), m.Username.Eq("member4"))))
	assert.Equal(t, 1, count(query.AllOf(m.TeamID.Eq(fx.teamB.ID), m.Age.Goe(40))))
}

func TestFetchJoinLoadsTeam(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	q := query.SelectFrom(fx.f, m.EntityPath).Where(m.Username.Eq("member3"))

	lazy, err := q.FetchOne(ctx)
	require.NoError(t, err)
	require.NotNil(t, lazy)
	assert.Nil(t, lazy.Team)

	joined, err := q.FetchJoin(m.Team).FetchOne(ctx)
	require.NoError(t, err)
	require.NotNil(t, joined)
	require.NotNil(t, joined.Team)
	assert.Equal(t, "teamB", joined.Team.Name)
}

func TestFetchInsideTransaction(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	rollback := errors.New("rollback")

	err := fx.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(entity.NewMemberWithAge("member9", 90)).Exec(ctx)
		require.NoError(t, err)

		inTx, err := query.SelectFrom(fx.f.WithTx(tx), m.EntityPath).FetchCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, inTx)
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	after, err := query.SelectFrom(fx.f, m.EntityPath).FetchCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, after)
}

func TestConstraintViolationSurfaces(t *testing.T) {
	fx := setup(t)
	teams := repository.NewRepository[entity.Team](fx.db, entity.QTeam.EntityPath)

	err := teams.Persist(context.Background(), entity.NewTeam("teamA"))
	require.Error(t, err)
	assert.True(t, database.IsConstraintViolation(err))
	_, kind := database.IsSqlError(err)
	assert.Equal(t, database.DuplicateKeyErr, kind)
}

type opLogger struct {
	ops []interface{}
}

func (l *opLogger) SetLevel(database.LogLevel)   {}
func (l *opLogger) Info(string, ...interface{})  {}
func (l *opLogger) Warn(string, ...interface{})  {}
func (l *opLogger) Error(string, ...interface{}) {}
func (l *opLogger) Debug(msg string, fields ...interface{}) {
	if len(fields) > 1 && fields[0] == "op" {
		l.ops = append(l.ops, fields[1])
	}
}

func TestFactoryLogsEachTerminalCall(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	log := &opLogger{}
	q := query.SelectFrom(fx.f.WithLogger(log), m.EntityPath).Where(m.Age.Gt(100))

	_, err := q.Fetch(ctx)
	require.NoError(t, err)
	_, err = q.FetchResults(ctx)
	require.NoError(t, err)

	// no window query when the count is zero
	assert.Equal(t, []interface{}{"fetch", "fetchCount"}, log.ops)
}
