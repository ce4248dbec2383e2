package registry

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

func TestDefault_CoversEveryQuestionType(t *testing.T) {
	r := Default()
	for _, qt := range models.QuestionTypes {
		spec, err := r.Lookup(qt)
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", qt, err)
		}
		if spec.Relation == "" || spec.OrderBy == "" || spec.Decode == nil {
			t.Errorf("Lookup(%s) returned incomplete spec %+v", qt, spec)
		}
	}
	if got := len(r.Relations()); got != 5 {
		t.Errorf("Relations() = %d relations, want 5", got)
	}
}

func TestLookup_UnknownType(t *testing.T) {
	_, err := Default().Lookup("essay")
	if !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("Lookup(essay) error = %v, want ErrUnknownQuestionType", err)
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	spec := Spec{Type: models.Matching, Relation: "matching_pairs", Decode: decodeMatchPairs}
	if _, err := New(spec, spec); err == nil {
		t.Fatal("New() with duplicate specs returned nil error")
	}
	if _, err := New(Spec{Type: models.Matching}); err == nil {
		t.Fatal("New() with incomplete spec returned nil error")
	}
}

func TestDecoders(t *testing.T) {
	r := Default()
	tests := []struct {
		name    string
		qt      models.QuestionType
		rows    []models.AnswerRow
		kind    models.AnswerKind
		wantLen int
		wantErr bool
	}{
		{
			name: "choice options with sqlite booleans",
			qt:   models.SingleChoice,
			rows: []models.AnswerRow{
				{"id": int64(1), "text": "Paris", "is_correct": int64(1), "position": int64(1)},
				{"id": int64(2), "text": "Lyon", "is_correct": int64(0), "position": int64(2)},
			},
			kind:    models.KindChoice,
			wantLen: 2,
		},
		{
			name: "true false labels",
			qt:   models.TrueFalse,
			rows: []models.AnswerRow{
				{"id": int64(1), "label": "True", "is_correct": true},
				{"id": int64(2), "label": "False", "is_correct": false},
			},
			kind:    models.KindChoice,
			wantLen: 2,
		},
		{
			name: "matching pairs",
			qt:   models.Matching,
			rows: []models.AnswerRow{
				{"id": "a", "left_text": "H2O", "right_text": "water"},
			},
			kind:    models.KindMatching,
			wantLen: 1,
		},
		{
			name: "sequence steps from bytes",
			qt:   models.Sequence,
			rows: []models.AnswerRow{
				{"id": int64(7), "text": []byte("boil"), "correct_position": []byte("2")},
			},
			kind:    models.KindSequence,
			wantLen: 1,
		},
		{
			name: "drag drop pieces",
			qt:   models.DragDrop,
			rows: []models.AnswerRow{
				{"id": int64(1), "content": "cat", "target_zone": "mammals"},
				{"id": int64(2), "content": "trout", "target_zone": "fish"},
			},
			kind:    models.KindDragDrop,
			wantLen: 2,
		},
		{
			name:    "missing column",
			qt:      models.Matching,
			rows:    []models.AnswerRow{{"id": int64(1), "left_text": "only left"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := r.Lookup(tt.qt)
			if err != nil {
				t.Fatal(err)
			}
			set, err := spec.Decode(tt.rows)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if set.Kind != tt.kind {
				t.Errorf("Decode() kind = %s, want %s", set.Kind, tt.kind)
			}
			if set.Len() != tt.wantLen {
				t.Errorf("Decode() len = %d, want %d", set.Len(), tt.wantLen)
			}
			if err := r.CheckAnswers(tt.qt, set); err != nil {
				t.Errorf("CheckAnswers() error = %v", err)
			}
		})
	}
}

func TestDecodeChoiceOptions_Fields(t *testing.T) {
	set, err := decodeChoiceOptions([]models.AnswerRow{
		{"id": int64(3), "text": "Paris", "is_correct": "true", "position": int64(4)},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := set.Choices[0]
	want := models.ChoiceOption{ID: "3", Text: "Paris", Correct: true, Position: 4}
	if got != want {
		t.Errorf("decodeChoiceOptions() = %+v, want %+v", got, want)
	}
}

func TestCheckAnswers_KindMismatch(t *testing.T) {
	set := models.NewMatchingSet([]models.MatchPair{{Left: "a", Right: "b"}})
	if err := Default().CheckAnswers(models.SingleChoice, set); err == nil {
		t.Fatal("CheckAnswers() accepted matching answers for a single-choice question")
	}
}
