package models

import "fmt"

// AnswerKind discriminates the AnswerSet variants.
type AnswerKind string

const (
	KindChoice   AnswerKind = "choice"
	KindMatching AnswerKind = "matching"
	KindSequence AnswerKind = "sequence"
	KindDragDrop AnswerKind = "drag_drop"
)

// ===== ANSWER SET VARIANTS =====

type ChoiceOption struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Correct  bool   `json:"correct"`
	Position int    `json:"position"`
}

type MatchPair struct {
	ID    string `json:"id"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type SequenceStep struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	CorrectPosition int    `json:"correct_position"`
}

type DragDropPiece struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	TargetZone string `json:"target_zone"`
}

// AnswerSet is a tagged union: Kind selects which one of the lists is
// populated. Construct it through the New*Set helpers so the tag and the
// payload cannot disagree. The zero value is invalid.
type AnswerSet struct {
	Kind    AnswerKind      `json:"kind"`
	Choices []ChoiceOption  `json:"choices,omitempty"`
	Pairs   []MatchPair     `json:"pairs,omitempty"`
	Steps   []SequenceStep  `json:"steps,omitempty"`
	Pieces  []DragDropPiece `json:"pieces,omitempty"`
}

func NewChoiceSet(options []ChoiceOption) AnswerSet {
	return AnswerSet{Kind: KindChoice, Choices: options}
}

func NewMatchingSet(pairs []MatchPair) AnswerSet {
	return AnswerSet{Kind: KindMatching, Pairs: pairs}
}

func NewSequenceSet(steps []SequenceStep) AnswerSet {
	return AnswerSet{Kind: KindSequence, Steps: steps}
}

func NewDragDropSet(pieces []DragDropPiece) AnswerSet {
	return AnswerSet{Kind: KindDragDrop, Pieces: pieces}
}

// EmptySet returns a set of the given kind with no items.
func EmptySet(kind AnswerKind) AnswerSet {
	return AnswerSet{Kind: kind}
}

// Len returns the number of items in the populated variant.
func (s AnswerSet) Len() int {
	switch s.Kind {
	case KindChoice:
		return len(s.Choices)
	case KindMatching:
		return len(s.Pairs)
	case KindSequence:
		return len(s.Steps)
	case KindDragDrop:
		return len(s.Pieces)
	}
	return 0
}

func (s AnswerSet) IsEmpty() bool {
	return s.Len() == 0
}

// CorrectCount returns the number of choice options flagged correct.
func (s AnswerSet) CorrectCount() int {
	count := 0
	for _, option := range s.Choices {
		if option.Correct {
			count++
		}
	}
	return count
}

// CheckShape verifies that only the list selected by Kind carries items.
func (s AnswerSet) CheckShape() error {
	populated := map[AnswerKind]int{
		KindChoice:   len(s.Choices),
		KindMatching: len(s.Pairs),
		KindSequence: len(s.Steps),
		KindDragDrop: len(s.Pieces),
	}
	if _, ok := populated[s.Kind]; !ok {
		return fmt.Errorf("unknown answer kind %q", s.Kind)
	}
	for kind, n := range populated {
		if kind != s.Kind && n > 0 {
			return fmt.Errorf("answer set of kind %s carries %d %s items", s.Kind, n, kind)
		}
	}
	return nil
}

// AnswerRow is a raw record read from one of the answer relations, keyed by
// column name.
type AnswerRow map[string]interface{}
