package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

var ErrUnknownQuestionType = errors.New("unknown question type")

// Decoder turns the raw rows of one question into its answer set.
type Decoder func(rows []models.AnswerRow) (models.AnswerSet, error)

// Spec describes how answers of one question type are stored and decoded.
type Spec struct {
	Type     models.QuestionType
	Relation string
	OrderBy  string
	Kind     models.AnswerKind
	Decode   Decoder
}

// Registry maps question type tags to their Spec. It is read-only once built.
type Registry struct {
	specs map[models.QuestionType]Spec
}

// New builds a registry from the given specs. Duplicate or incomplete specs
// are rejected.
func New(specs ...Spec) (*Registry, error) {
	r := &Registry{specs: make(map[models.QuestionType]Spec, len(specs))}
	for _, spec := range specs {
		if spec.Type == "" || spec.Relation == "" || spec.Decode == nil {
			return nil, fmt.Errorf("incomplete spec for question type %q", spec.Type)
		}
		if _, exists := r.specs[spec.Type]; exists {
			return nil, fmt.Errorf("duplicate spec for question type %q", spec.Type)
		}
		r.specs[spec.Type] = spec
	}
	return r, nil
}

// Default returns the registry for the six built-in question types.
func Default() *Registry {
	r, err := New(
		Spec{Type: models.SingleChoice, Relation: "answer_options", OrderBy: "position ASC, id ASC", Kind: models.KindChoice, Decode: decodeChoiceOptions},
		Spec{Type: models.MultipleChoice, Relation: "answer_options", OrderBy: "position ASC, id ASC", Kind: models.KindChoice, Decode: decodeChoiceOptions},
		Spec{Type: models.TrueFalse, Relation: "true_false_options", OrderBy: "position ASC, id ASC", Kind: models.KindChoice, Decode: decodeTrueFalseOptions},
		Spec{Type: models.Matching, Relation: "matching_pairs", OrderBy: "id ASC", Kind: models.KindMatching, Decode: decodeMatchPairs},
		Spec{Type: models.Sequence, Relation: "sequence_items", OrderBy: "correct_position ASC, id ASC", Kind: models.KindSequence, Decode: decodeSequenceSteps},
		Spec{Type: models.DragDrop, Relation: "drag_drop_items", OrderBy: "id ASC", Kind: models.KindDragDrop, Decode: decodeDragDropPieces},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the spec for a type tag.
func (r *Registry) Lookup(questionType models.QuestionType) (Spec, error) {
	spec, ok := r.specs[questionType]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownQuestionType, questionType)
	}
	return spec, nil
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []models.QuestionType {
	types := make([]models.QuestionType, 0, len(r.specs))
	for t := range r.specs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Relations returns the distinct backing relations.
func (r *Registry) Relations() []string {
	seen := make(map[string]bool)
	var relations []string
	for _, t := range r.Types() {
		relation := r.specs[t].Relation
		if !seen[relation] {
			seen[relation] = true
			relations = append(relations, relation)
		}
	}
	return relations
}

// CheckAnswers reports whether an answer set is a valid shape for the type.
func (r *Registry) CheckAnswers(questionType models.QuestionType, answers models.AnswerSet) error {
	spec, err := r.Lookup(questionType)
	if err != nil {
		return err
	}
	if answers.Kind != spec.Kind {
		return fmt.Errorf("question type %s expects %s answers, got %s", questionType, spec.Kind, answers.Kind)
	}
	return answers.CheckShape()
}
