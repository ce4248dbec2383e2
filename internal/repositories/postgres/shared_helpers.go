package postgres

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	relations map[string]bool
}

func NewSharedHelpers(relations []string) *SharedHelpers {
	allowed := make(map[string]bool, len(relations))
	for _, r := range relations {
		allowed[r] = true
	}
	return &SharedHelpers{relations: allowed}
}

// ValidateRelation guards the table name interpolated into answer queries
func (h *SharedHelpers) ValidateRelation(relation string) error {
	if !h.relations[relation] {
		return fmt.Errorf("%w: %q", repositories.ErrInvalidRelation, relation)
	}
	return nil
}

// SanitizeOrder whitelists ORDER BY clauses built from "column [ASC|DESC]"
// terms, falling back to id order
func (h *SharedHelpers) SanitizeOrder(orderBy string) string {
	if strings.TrimSpace(orderBy) == "" {
		return "id ASC"
	}
	terms := strings.Split(orderBy, ",")
	clean := make([]string, 0, len(terms))
	for _, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 || len(fields) > 2 || !isIdentifier(fields[0]) {
			return "id ASC"
		}
		direction := "ASC"
		if len(fields) == 2 {
			switch strings.ToUpper(fields[1]) {
			case "ASC":
			case "DESC":
				direction = "DESC"
			default:
				return "id ASC"
			}
		}
		clean = append(clean, fields[0]+" "+direction)
	}
	return strings.Join(clean, ", ")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
