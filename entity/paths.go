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

import "github.com/tomoncle/querydsl/query"

// QMemberPath holds the typed column handles of Member.
type QMemberPath struct {
	query.EntityPath[Member]

	ID       query.NumberPath[Member, int64]
	Username query.StringPath[Member]
	Age      query.NumberPath[Member, int]
	TeamID   query.NumberPath[Member, int64]
	Team     query.Relation[Member]
}

// QTeamPath holds the typed column handles of Team.
type QTeamPath struct {
	query.EntityPath[Team]

	ID      query.NumberPath[Team, int64]
	Name    query.StringPath[Team]
	Members query.Relation[Team]
}

var (
	QMember = newQMember("m")
	QTeam   = newQTeam("t")
)

func newQMember(alias string) QMemberPath {
	root := query.NewEntityPath[Member](alias)
	return QMemberPath{
		EntityPath: root,
		ID:         query.NewNumberPath[Member, int64](root, "member_id"),
		Username:   query.NewStringPath(root, "username"),
		Age:        query.NewNumberPath[Member, int](root, "age"),
		TeamID:     query.NewNumberPath[Member, int64](root, "team_id"),
		Team:       query.NewRelation[Member]("Team"),
	}
}

func newQTeam(alias string) QTeamPath {
	root := query.NewEntityPath[Team](alias)
	return QTeamPath{
		EntityPath: root,
		ID:         query.NewNumberPath[Team, int64](root, "team_id"),
		Name:       query.NewStringPath(root, "name"),
		Members:    query.NewRelation[Team]("Members"),
	}
}
