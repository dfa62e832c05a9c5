package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	skillStatesTable     = "skill_states"
	sessionsTable        = "practice_sessions"
	issuedQuestionsTable = "issued_questions"
	llmRequestsTable     = "llm_request_events"
)

var (
	// SkillStatesColumns holds the current skill state per user×topic.
	SkillStatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "topic", Type: field.TypeString, Size: 128},
		{Name: "score", Type: field.TypeInt},
		{Name: "streak", Type: field.TypeInt, Default: 0},
		{Name: "best_streak", Type: field.TypeInt, Default: 0},
		{Name: "total_attempted", Type: field.TypeInt, Default: 0},
		{Name: "total_correct", Type: field.TypeInt, Default: 0},
		{Name: "last_practiced_at", Type: field.TypeTime, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	SkillStatesTable = &schema.Table{
		Name:       skillStatesTable,
		Columns:    SkillStatesColumns,
		PrimaryKey: []*schema.Column{SkillStatesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "skillstate_user_id_topic", Unique: true, Columns: []*schema.Column{SkillStatesColumns[1], SkillStatesColumns[2]}},
			{Name: "skillstate_topic_score", Columns: []*schema.Column{SkillStatesColumns[2], SkillStatesColumns[3]}},
		},
	}

	// SessionsColumns holds aggregate counters for a practice session.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "topic", Type: field.TypeString, Size: 128, Default: ""},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "ended_at", Type: field.TypeTime, Nullable: true},
		{Name: "questions_attempted", Type: field.TypeInt, Default: 0},
		{Name: "questions_correct", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	SessionsTable = &schema.Table{
		Name:       sessionsTable,
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_user_id_started_at", Columns: []*schema.Column{SessionsColumns[1], SessionsColumns[3]}},
		},
	}

	// IssuedQuestionsColumns holds questions handed to a user and not yet
	// pruned. answered_at is set exactly once, when the answer is scored.
	IssuedQuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "session_id", Type: field.TypeString, Size: 36},
		{Name: "topic", Type: field.TypeString, Size: 128},
		{Name: "difficulty", Type: field.TypeInt},
		{Name: "prompt", Type: field.TypeString, Size: 2147483647},
		{Name: "payload", Type: field.TypeJSON},
		{Name: "issued_at", Type: field.TypeTime},
		{Name: "answered_at", Type: field.TypeTime, Nullable: true},
	}
	IssuedQuestionsTable = &schema.Table{
		Name:       issuedQuestionsTable,
		Columns:    IssuedQuestionsColumns,
		PrimaryKey: []*schema.Column{IssuedQuestionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "issuedquestion_session_id", Columns: []*schema.Column{IssuedQuestionsColumns[2]}},
			{Name: "issuedquestion_issued_at", Columns: []*schema.Column{IssuedQuestionsColumns[7]}},
		},
	}

	// LLMRequestEventsColumns records every LLM API call for cost tracking
	// and debugging.
	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString, Size: 64},
		{Name: "model", Type: field.TypeString, Size: 128},
		{Name: "purpose", Type: field.TypeString, Size: 64},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	LLMRequestEventsTable = &schema.Table{
		Name:       llmRequestsTable,
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LLMRequestEventsColumns[4]}},
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LLMRequestEventsColumns[1]}},
		},
	}

	// Tables lists every table managed by the migrator.
	Tables = []*schema.Table{
		SkillStatesTable,
		SessionsTable,
		IssuedQuestionsTable,
		LLMRequestEventsTable,
	}
)
