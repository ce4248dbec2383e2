package registry

import (
	"fmt"
	"strconv"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

// ===== DECODERS =====

func decodeChoiceOptions(rows []models.AnswerRow) (models.AnswerSet, error) {
	options := make([]models.ChoiceOption, 0, len(rows))
	for _, row := range rows {
		text, err := rowString(row, "text")
		if err != nil {
			return models.AnswerSet{}, err
		}
		options = append(options, models.ChoiceOption{
			ID:       rowID(row),
			Text:     text,
			Correct:  rowBool(row, "is_correct"),
			Position: rowInt(row, "position"),
		})
	}
	return models.NewChoiceSet(options), nil
}

// True/false rows carry a label instead of free text.
func decodeTrueFalseOptions(rows []models.AnswerRow) (models.AnswerSet, error) {
	options := make([]models.ChoiceOption, 0, len(rows))
	for _, row := range rows {
		label, err := rowString(row, "label")
		if err != nil {
			return models.AnswerSet{}, err
		}
		options = append(options, models.ChoiceOption{
			ID:       rowID(row),
			Text:     label,
			Correct:  rowBool(row, "is_correct"),
			Position: rowInt(row, "position"),
		})
	}
	return models.NewChoiceSet(options), nil
}

func decodeMatchPairs(rows []models.AnswerRow) (models.AnswerSet, error) {
	pairs := make([]models.MatchPair, 0, len(rows))
	for _, row := range rows {
		left, err := rowString(row, "left_text")
		if err != nil {
			return models.AnswerSet{}, err
		}
		right, err := rowString(row, "right_text")
		if err != nil {
			return models.AnswerSet{}, err
		}
		pairs = append(pairs, models.MatchPair{ID: rowID(row), Left: left, Right: right})
	}
	return models.NewMatchingSet(pairs), nil
}

func decodeSequenceSteps(rows []models.AnswerRow) (models.AnswerSet, error) {
	steps := make([]models.SequenceStep, 0, len(rows))
	for _, row := range rows {
		text, err := rowString(row, "text")
		if err != nil {
			return models.AnswerSet{}, err
		}
		steps = append(steps, models.SequenceStep{
			ID:              rowID(row),
			Text:            text,
			CorrectPosition: rowInt(row, "correct_position"),
		})
	}
	return models.NewSequenceSet(steps), nil
}

func decodeDragDropPieces(rows []models.AnswerRow) (models.AnswerSet, error) {
	pieces := make([]models.DragDropPiece, 0, len(rows))
	for _, row := range rows {
		content, err := rowString(row, "content")
		if err != nil {
			return models.AnswerSet{}, err
		}
		zone, err := rowString(row, "target_zone")
		if err != nil {
			return models.AnswerSet{}, err
		}
		pieces = append(pieces, models.DragDropPiece{ID: rowID(row), Content: content, TargetZone: zone})
	}
	return models.NewDragDropSet(pieces), nil
}

// ===== ROW HELPERS =====
// Drivers disagree on column types (sqlite returns booleans as int64,
// postgres text may arrive as []byte), so the helpers normalize.

// RowString returns the column as a string, or an error when it is missing.
func RowString(row models.AnswerRow, column string) (string, error) {
	return rowString(row, column)
}

func rowString(row models.AnswerRow, column string) (string, error) {
	value, ok := row[column]
	if !ok || value == nil {
		return "", fmt.Errorf("answer row missing column %q", column)
	}
	return toString(value), nil
}

func rowID(row models.AnswerRow) string {
	if value, ok := row["id"]; ok && value != nil {
		return toString(value)
	}
	return ""
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func rowBool(row models.AnswerRow, column string) bool {
	switch v := row[column].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int32:
		return v != 0
	case int:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case []byte:
		b, _ := strconv.ParseBool(string(v))
		return b
	}
	return false
}

func rowInt(row models.AnswerRow, column string) int {
	switch v := row[column].(type) {
	case int64:
		return int(v)
	case int32:
		return int(v)
	case int:
		return v
	case uint:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	}
	return 0
}
