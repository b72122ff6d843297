package migrations

import (
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/db/schema"
)

func init() {
	Schema.AddMigration("001_initial", db.NewMigration(m001Operations))
}

func objectColumns(columns ...schema.Column) []schema.Column {
	return append([]schema.Column{
		{Name: "id", Type: schema.Int64, PrimaryKey: true, AutoIncrement: true},
	}, columns...)
}

func eventColumns(columns ...schema.Column) []schema.Column {
	return append([]schema.Column{
		{Name: "event_id", Type: schema.Int64, PrimaryKey: true, AutoIncrement: true},
		{Name: "event_kind", Type: schema.Int64},
		{Name: "event_time", Type: schema.Int64},
		{Name: "event_account_id", Type: schema.Int64, Nullable: true},
		{Name: "id", Type: schema.Int64},
	}, columns...)
}

var m001Operations = buildM001Operations()

func buildM001Operations() []schema.Operation {
	var operations []schema.Operation
	createObject := func(name string, columns ...schema.Column) {
		operations = append(operations,
			schema.CreateTable{
				Name:    name,
				Columns: objectColumns(columns...),
			},
			schema.CreateTable{
				Name:    name + "_event",
				Columns: eventColumns(columns...),
			},
		)
	}
	createObject("hackdesk_setting",
		schema.Column{Name: "key", Type: schema.String},
		schema.Column{Name: "value", Type: schema.String},
	)
	createObject("hackdesk_file",
		schema.Column{Name: "status", Type: schema.Int64},
		schema.Column{Name: "expire_time", Type: schema.Int64, Nullable: true},
		schema.Column{Name: "path", Type: schema.String},
		schema.Column{Name: "meta", Type: schema.JSON},
	)
	createObject("hackdesk_role",
		schema.Column{Name: "name", Type: schema.String},
	)
	createObject("hackdesk_role_edge",
		schema.Column{Name: "role_id", Type: schema.Int64},
		schema.Column{Name: "child_id", Type: schema.Int64},
	)
	createObject("hackdesk_account",
		schema.Column{Name: "kind", Type: schema.Int64},
	)
	createObject("hackdesk_account_role",
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "role_id", Type: schema.Int64},
	)
	createObject("hackdesk_session",
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "secret", Type: schema.String},
		schema.Column{Name: "create_time", Type: schema.Int64},
		schema.Column{Name: "expire_time", Type: schema.Int64},
		schema.Column{Name: "real_ip", Type: schema.String},
		schema.Column{Name: "user_agent", Type: schema.String},
	)
	createObject("hackdesk_token",
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "secret", Type: schema.String},
		schema.Column{Name: "kind", Type: schema.Int64},
		schema.Column{Name: "config", Type: schema.JSON},
		schema.Column{Name: "create_time", Type: schema.Int64},
		schema.Column{Name: "expire_time", Type: schema.Int64},
	)
	createObject("hackdesk_user",
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "login", Type: schema.String},
		schema.Column{Name: "status", Type: schema.Int64},
		schema.Column{Name: "password_hash", Type: schema.String},
		schema.Column{Name: "password_salt", Type: schema.String},
		schema.Column{Name: "email", Type: schema.String, Nullable: true},
		schema.Column{Name: "first_name", Type: schema.String, Nullable: true},
		schema.Column{Name: "last_name", Type: schema.String, Nullable: true},
	)
	createObject("hackdesk_hackathon",
		schema.Column{Name: "title", Type: schema.String},
		schema.Column{Name: "config", Type: schema.JSON},
		schema.Column{Name: "owner_id", Type: schema.Int64, Nullable: true},
	)
	createObject("hackdesk_rubric",
		schema.Column{Name: "hackathon_id", Type: schema.Int64},
		schema.Column{Name: "title", Type: schema.String},
		schema.Column{Name: "weight", Type: schema.Float64},
		schema.Column{Name: "max_score", Type: schema.Float64},
	)
	createObject("hackdesk_judge",
		schema.Column{Name: "hackathon_id", Type: schema.Int64},
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "create_time", Type: schema.Int64},
	)
	createObject("hackdesk_team",
		schema.Column{Name: "hackathon_id", Type: schema.Int64},
		schema.Column{Name: "name", Type: schema.String},
		schema.Column{Name: "description", Type: schema.String, Nullable: true},
		schema.Column{Name: "invite_code", Type: schema.String},
		schema.Column{Name: "create_time", Type: schema.Int64},
	)
	createObject("hackdesk_team_member",
		schema.Column{Name: "team_id", Type: schema.Int64},
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "kind", Type: schema.Int64},
		schema.Column{Name: "create_time", Type: schema.Int64},
	)
	createObject("hackdesk_application",
		schema.Column{Name: "hackathon_id", Type: schema.Int64},
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "status", Type: schema.Int64},
		schema.Column{Name: "answers", Type: schema.JSON},
		schema.Column{Name: "create_time", Type: schema.Int64},
		schema.Column{Name: "submit_time", Type: schema.Int64, Nullable: true},
	)
	createObject("hackdesk_project",
		schema.Column{Name: "hackathon_id", Type: schema.Int64},
		schema.Column{Name: "team_id", Type: schema.Int64},
		schema.Column{Name: "title", Type: schema.String},
		schema.Column{Name: "description", Type: schema.String, Nullable: true},
		schema.Column{Name: "repo_url", Type: schema.String, Nullable: true},
		schema.Column{Name: "demo_url", Type: schema.String, Nullable: true},
		schema.Column{Name: "create_time", Type: schema.Int64},
		schema.Column{Name: "submit_time", Type: schema.Int64, Nullable: true},
	)
	createObject("hackdesk_project_file",
		schema.Column{Name: "project_id", Type: schema.Int64},
		schema.Column{Name: "file_id", Type: schema.Int64},
		schema.Column{Name: "name", Type: schema.String},
	)
	createObject("hackdesk_score",
		schema.Column{Name: "hackathon_id", Type: schema.Int64},
		schema.Column{Name: "team_id", Type: schema.Int64},
		schema.Column{Name: "judge_id", Type: schema.Int64},
		schema.Column{Name: "rubric_id", Type: schema.Int64},
		schema.Column{Name: "value", Type: schema.Float64},
		schema.Column{Name: "create_time", Type: schema.Int64},
	)
	createObject("hackdesk_invite_attempt",
		schema.Column{Name: "account_id", Type: schema.Int64},
		schema.Column{Name: "real_ip", Type: schema.String},
		schema.Column{Name: "create_time", Type: schema.Int64},
	)
	operations = append(operations,
		schema.CreateIndex{Table: "hackdesk_user", Columns: []string{"login"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_user", Columns: []string{"account_id"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_session", Columns: []string{"account_id"}},
		schema.CreateIndex{Table: "hackdesk_account_role", Columns: []string{"account_id"}},
		schema.CreateIndex{Table: "hackdesk_token", Columns: []string{"account_id", "kind"}},
		schema.CreateIndex{Table: "hackdesk_rubric", Columns: []string{"hackathon_id"}},
		schema.CreateIndex{Table: "hackdesk_judge", Columns: []string{"hackathon_id", "account_id"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_team", Columns: []string{"invite_code"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_team", Columns: []string{"hackathon_id"}},
		schema.CreateIndex{Table: "hackdesk_team_member", Columns: []string{"team_id", "account_id"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_application", Columns: []string{"hackathon_id", "account_id"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_project", Columns: []string{"team_id"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_project_file", Columns: []string{"project_id"}},
		schema.CreateIndex{Table: "hackdesk_score", Columns: []string{"team_id", "judge_id", "rubric_id"}, Unique: true},
		schema.CreateIndex{Table: "hackdesk_score", Columns: []string{"hackathon_id"}},
		schema.CreateIndex{Table: "hackdesk_invite_attempt", Columns: []string{"account_id", "create_time"}},
	)
	return operations
}
