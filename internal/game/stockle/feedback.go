package stockle

import "fmt"

// LetterTag is the per-character verdict for a guess.
type LetterTag int

const (
	// Absent means the letter does not occur in the answer (or all of its
	// occurrences were already consumed by other positions).
	Absent LetterTag = iota
	// Present means the letter occurs elsewhere in the answer.
	Present
	// Correct means the letter is in the right position.
	Correct
)

// String returns the tag name.
func (t LetterTag) String() string {
	switch t {
	case Correct:
		return "correct"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Feedback computes Wordle-style feedback for guess against answer.
//
// Exact matches are resolved first and consume their answer letter. The
// remaining positions are scanned left to right, each taking one unconsumed
// occurrence of its letter if any is left. Inputs are compared byte-wise and
// must have equal length.
func Feedback(guess, answer string) ([]LetterTag, error) {
	if len(guess) != len(answer) {
		return nil, fmt.Errorf("%w: guess has %d letters, answer has %d",
			ErrLengthMismatch, len(guess), len(answer))
	}

	tags := make([]LetterTag, len(guess))
	remaining := make(map[byte]int, len(answer))

	for i := 0; i < len(answer); i++ {
		if guess[i] == answer[i] {
			tags[i] = Correct
			continue
		}
		remaining[answer[i]]++
	}

	for i := 0; i < len(guess); i++ {
		if tags[i] == Correct {
			continue
		}
		if remaining[guess[i]] > 0 {
			tags[i] = Present
			remaining[guess[i]]--
		}
	}

	return tags, nil
}

// AllCorrect reports whether every tag is Correct.
func AllCorrect(tags []LetterTag) bool {
	for _, t := range tags {
		if t != Correct {
			return false
		}
	}
	return true
}
