package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

type KeyBuilder struct{}

// AssemblyKey returns the cache key for a whole test assembly
func (KeyBuilder) AssemblyKey(testID string) string {
	return fmt.Sprintf("test:%s", testID)
}

// AnswerBatchKey returns the cache key for the answers of a set of
// questions of one type. The key depends on the set of ids, not their order.
func (KeyBuilder) AnswerBatchKey(questionType models.QuestionType, questionIDs []string) string {
	ids := NormalizeIDs(questionIDs)
	sum := xxhash.Sum64String(strings.Join(ids, "\x00"))
	return fmt.Sprintf("%s:%d:%016x", questionType, len(ids), sum)
}

var Keys = KeyBuilder{}

// NormalizeIDs returns the ids sorted and de-duplicated.
func NormalizeIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
