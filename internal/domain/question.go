package domain

// Question is one generated multiple-choice question.
type Question struct {
	QuestionNo    int               `json:"questionNo"`
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correctAnswer"`
	Explanation   string            `json:"explanation"`
}

// OptionLabels are the choice keys every question carries.
var OptionLabels = []string{"A", "B", "C", "D"}

// Complete reports whether q has text, all four options and a valid answer key.
func (q Question) Complete() bool {
	if q.Question == "" || len(q.Options) != len(OptionLabels) {
		return false
	}
	answerKnown := false
	for _, l := range OptionLabels {
		if _, ok := q.Options[l]; !ok {
			return false
		}
		if l == q.CorrectAnswer {
			answerKnown = true
		}
	}
	return answerKnown
}
