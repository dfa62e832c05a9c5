package questiongen

// Question is a generated question, including its hidden answer.
type Question struct {
	ID       string
	Topic    string
	Language string

	// Prompt is the question shown to the user.
	Prompt string

	// Code is an optional snippet the prompt refers to.
	Code string

	Format Format

	// Choices holds exactly 4 options when Format is FormatMultipleChoice.
	Choices []string

	// Answer is the canonical answer. For multiple choice it is the text
	// of the correct option; for free text it doubles as the judging rubric.
	Answer string

	// Explanation is shown after the user answers.
	Explanation string

	// Difficulty is the question's difficulty in 1..100.
	Difficulty int
}

// Format describes how the user answers.
type Format string

const (
	FormatMultipleChoice Format = "multiple_choice"
	FormatFreeText       Format = "free_text"
)

// GenerateInput holds all context needed to generate a question.
type GenerateInput struct {
	Topic string

	// Language is the programming language of code snippets, e.g. "go".
	Language string

	// TargetDifficulty is the user's current skill score.
	TargetDifficulty int

	// PriorQuestions holds prompts already asked in this session, oldest
	// first.
	PriorQuestions []string
}
