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

package entity

import (
	"context"
	"fmt"

	"github.com/tomoncle/querydsl/query"
	"github.com/uptrace/bun"
)

// Member belongs to at most one Team. Username may be null.
//
// Team is loaded lazily: it stays nil after a plain fetch and is filled by
// Query.FetchJoin(QMember.Team) or LoadTeam.
type Member struct {
	bun.BaseModel `bun:"table:member,alias:m"`

	ID       int64   `bun:"member_id,pk,autoincrement" json:"id"`
	Username *string `bun:"username" json:"username"`
	Age      int     `bun:"age,notnull" json:"age"`
	TeamID   *int64  `bun:"team_id" json:"team_id,omitempty"`
	Team     *Team   `bun:"rel:belongs-to,join:team_id=team_id,on_delete:SET NULL" json:"team,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Member)(nil)

func NewMember(username string) *Member {
	return NewMemberWithAge(username, 0)
}

func NewMemberWithAge(username string, age int) *Member {
	return &Member{Username: &username, Age: age}
}

// NewMemberInTeam creates a member and attaches it to team when team is
// not nil.
func NewMemberInTeam(username string, age int, team *Team) *Member {
	m := NewMemberWithAge(username, age)
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

// NewUnnamedMember creates a member whose username is null.
func NewUnnamedMember(age int) *Member {
	return &Member{Age: age}
}

// Name returns the username, or "" when it is null.
func (m *Member) Name() string {
	if m.Username == nil {
		return ""
	}
	return *m.Username
}

// ChangeTeam moves m to team, keeping both sides of the association in
// step. A nil team detaches m.
func (m *Member) ChangeTeam(team *Team) {
	if m.Team != nil {
		m.Team.removeMember(m)
	}
	m.Team = team
	if team == nil {
		m.TeamID = nil
		return
	}
	m.syncTeamID()
	team.Members = append(team.Members, m)
}

// syncTeamID copies the key of the attached team into TeamID. A team
// without a key yet clears TeamID. With no team attached TeamID is left
// as loaded.
func (m *Member) syncTeamID() {
	if m.Team == nil {
		return
	}
	if m.Team.ID == 0 {
		m.TeamID = nil
		return
	}
	id := m.Team.ID
	m.TeamID = &id
}

// BeforeAppendModel copies the team key into TeamID, so a member attached
// before its team was persisted still writes the right foreign key.
func (m *Member) BeforeAppendModel(ctx context.Context, q bun.Query) error {
	switch q.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		m.syncTeamID()
	}
	return nil
}

// LoadTeam reads the team of m from db. It leaves Team nil when m has no
// team.
func (m *Member) LoadTeam(ctx context.Context, db bun.IDB) error {
	if m.TeamID == nil {
		m.Team = nil
		return nil
	}
	team, err := query.SelectFrom(query.NewFactory(db), QTeam.EntityPath).
		Where(QTeam.ID.Eq(*m.TeamID)).
		FetchOne(ctx)
	if err != nil {
		return err
	}
	m.Team = team
	return nil
}

func (m *Member) String() string {
	username := "null"
	if m.Username != nil {
		username = *m.Username
	}
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, username, m.Age)
}
