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

package querydsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/querydsl"
	"github.com/tomoncle/querydsl/database"
	"github.com/tomoncle/querydsl/entity"
	"github.com/tomoncle/querydsl/internal/testdb"
	"github.com/tomoncle/querydsl/types"
	"github.com/uptrace/bun"
)

func initGlobal(t *testing.T) {
	t.Helper()
	_, err := database.InitDB(testdb.Config())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })
}

func TestServiceBindsLazily(t *testing.T) {
	// declared before the database exists
	members := querydsl.NewService[entity.Member](entity.QMember.EntityPath)
	teams := querydsl.NewService[entity.Team](entity.QTeam.EntityPath)
	initGlobal(t)
	ctx := context.Background()

	team := entity.NewTeam("teamA")
	require.NoError(t, teams.Save(ctx, team))
	require.NoError(t, members.Save(ctx,
		entity.NewMemberInTeam("member1", 10, team),
		entity.NewMemberInTeam("member2", 20, team),
		entity.NewMemberWithAge("member3", 30),
	))

	all, err := members.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inTeam, err := members.Query().
		Where(entity.QMember.TeamID.Eq(team.ID)).
		OrderBy(entity.QMember.Age.Desc()).
		Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, inTeam, 2)
	assert.Equal(t, "member2", inTeam[0].Name())

	old, err := members.List(ctx, types.NewQueryFilter("age > ?", 15))
	require.NoError(t, err)
	assert.Len(t, old, 2)

	got, err := members.Get(ctx, all[0].ID)
	require.NoError(t, err)
	got.Age = 11
	require.NoError(t, members.Update(ctx, got))

	byName, err := members.Where(ctx, "age = ?", 11)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, got.ID, byName[0].ID)

	page, err := members.Page(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore())

	require.NoError(t, members.Delete(ctx, got.ID))
	n, err := members.SelectBuilder().Model((*entity.Member)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestServiceTransaction(t *testing.T) {
	initGlobal(t)
	members := querydsl.NewService[entity.Member](entity.QMember.EntityPath)
	ctx := context.Background()

	m := entity.NewMemberWithAge("member1", 10)
	err := members.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := members.SaveWithTx(ctx, &tx, m); err != nil {
			return err
		}
		m.Age = 12
		return members.UpdateWithTx(ctx, &tx, m)
	})
	require.NoError(t, err)

	got, err := members.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Age)

	m.Age = 40
	require.NoError(t, members.SaveOrUpdate(ctx, []string{"age"}, nil, m))
	got, err = members.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Age)

	err = members.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		return members.DeleteWithTx(ctx, &tx, m.ID)
	})
	require.NoError(t, err)
	all, err := members.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
