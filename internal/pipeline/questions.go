package pipeline

// DefaultQuestions are asked when the ask command gets no question.
var DefaultQuestions = []string{
	"Is ESG investment a fraud?",
	"How did European sustainable fund flows perform in Q1 2024 compared to the previous quarter?",
	"What is the net flows for Parnassus Mid Cap Fund?",
}
