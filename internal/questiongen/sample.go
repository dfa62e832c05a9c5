package questiongen

import (
	"encoding/json"
	"sync/atomic"

	"github.com/abhisek/codequiz/internal/llm"
)

// sampleQuestions back the offline mock provider. All are multiple choice
// so they are judged without an LLM.
var sampleQuestions = []questionOutput{
	{
		Prompt:      "What does this program print?",
		Code:        "s := []int{1, 2, 3}\nt := s[:2]\nt = append(t, 9)\nfmt.Println(s)",
		Format:      string(FormatMultipleChoice),
		Choices:     []string{"[1 2 3]", "[1 2 9]", "[1 2 3 9]", "[9 2 3]"},
		Answer:      "[1 2 9]",
		Explanation: "t shares s's backing array and has spare capacity, so append overwrites s[2].",
		Difficulty:  35,
	},
	{
		Prompt:      "What is the zero value of a map declared with var m map[string]int?",
		Format:      string(FormatMultipleChoice),
		Choices:     []string{"an empty map", "nil", "a map with one zero entry", "it does not compile"},
		Answer:      "nil",
		Explanation: "Maps are reference types; an uninitialized map is nil and panics on write.",
		Difficulty:  15,
	},
	{
		Prompt:      "What happens when this runs?",
		Code:        "ch := make(chan int)\nch <- 1\nfmt.Println(<-ch)",
		Format:      string(FormatMultipleChoice),
		Choices:     []string{"prints 1", "prints 0", "deadlock", "compile error"},
		Answer:      "deadlock",
		Explanation: "The send on an unbuffered channel blocks forever because nothing receives concurrently.",
		Difficulty:  40,
	},
	{
		Prompt:      "How many times does the deferred call run?",
		Code:        "for i := 0; i < 3; i++ {\n\tdefer fmt.Println(i)\n}",
		Format:      string(FormatMultipleChoice),
		Choices:     []string{"0", "1", "3", "it depends on the scheduler"},
		Answer:      "3",
		Explanation: "Each iteration registers a deferred call; they run in LIFO order when the function returns.",
		Difficulty:  25,
	},
}

// SampleHandler returns an llm.MockHandler that cycles through a built-in
// question bank, for running without an API key.
func SampleHandler() llm.MockHandler {
	var next atomic.Int64
	return func(llm.Request) (json.RawMessage, error) {
		q := sampleQuestions[int(next.Add(1)-1)%len(sampleQuestions)]
		return json.Marshal(q)
	}
}
