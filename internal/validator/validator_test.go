package validator

import (
	"errors"
	"testing"
)

func TestBusinessValidator_AssemblyRequest(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name      string
		req       AssemblyRequest
		wantField string
	}{
		{name: "valid", req: AssemblyRequest{TestID: "t-1"}},
		{name: "valid with session", req: AssemblyRequest{TestID: "t-1", SessionID: "3f2b8c4e-8f0a-4c43-9d4e-5a1b2c3d4e5f"}},
		{name: "missing test id", req: AssemblyRequest{}, wantField: "TestID"},
		{name: "whitespace in id", req: AssemblyRequest{TestID: "t 1"}, wantField: "TestID"},
		{name: "bad session id", req: AssemblyRequest{TestID: "t-1", SessionID: "nope"}, wantField: "SessionID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateAssemblyRequest(&tt.req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Field != tt.wantField {
				t.Fatalf("expected one error on %s, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestBusinessValidator_AnswersRequest(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name     string
		req      AnswersRequest
		wantRule string
	}{
		{name: "single choice", req: AnswersRequest{QuestionID: "q1", Type: "single-choice"}},
		{name: "drag drop", req: AnswersRequest{QuestionID: "q1", Type: "drag-drop"}},
		{name: "unknown type", req: AnswersRequest{QuestionID: "q1", Type: "essay"}, wantRule: "question_type"},
		{name: "missing type", req: AnswersRequest{QuestionID: "q1"}},
		{name: "missing id", req: AnswersRequest{Type: "matching"}, wantRule: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateAnswersRequest(&tt.req)
			if tt.wantRule == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Rule != tt.wantRule {
				t.Fatalf("expected rule %s, got %v", tt.wantRule, errs)
			}
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := New()

	err := v.Var("level", "verbose", "log_level")
	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if errs[0].Field != "level" {
		t.Errorf("field = %q", errs[0].Field)
	}
	if v.Var("level", "warn", "log_level") != nil {
		t.Error("warn should be a valid level")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	one := ValidationErrors{{Field: "type", Message: "is required"}}
	if one.Error() != "validation failed: type is required" {
		t.Errorf("got %q", one.Error())
	}
	two := ValidationErrors{{Field: "a"}, {Field: "b"}}
	if two.Error() != "validation failed: 2 field errors" {
		t.Errorf("got %q", two.Error())
	}
}
