// Package moodmatrix classifies sets of canonical English mood tags into a
// semantic relationship (Journey, Paradox, Intensification, Multi-faceted,
// or the degenerate Simple case) and produces a prompt-template string for
// the embedding query generator (internal/querygen).
package moodmatrix

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v2"
)

//go:embed data/relationship_matrix.yaml
var relationshipMatrixYAML []byte

// RelationshipType classifies how a set of mood tags relate to each other.
type RelationshipType string

const (
	Simple           RelationshipType = "simple"
	Journey          RelationshipType = "Journey"
	Paradox          RelationshipType = "Paradox"
	Intensification  RelationshipType = "Intensification"
	MultiFaceted     RelationshipType = "Multi-faceted"
)

// Source records whether a Relationship came from the curated matrix or a
// fallback heuristic, carried through for debug tracing.
type Source string

const (
	SourceMatrix    Source = "matrix"
	SourceHeuristic Source = "heuristic"
	SourceSimple    Source = "simple"
)

// Relationship is the record produced by Analyze.
type Relationship struct {
	Type          RelationshipType
	Template      string
	Description   string
	ZhDescription string
	Source        Source
	Confidence    string // "high" (matrix) or "medium" (heuristic)
}

type matrixEntry struct {
	Type          RelationshipType `yaml:"type"`
	Template      string           `yaml:"template"`
	Description   string           `yaml:"description"`
	ZhDescription string           `yaml:"zh_description"`
}

var matrix map[string]matrixEntry

func init() {
	if err := yaml.Unmarshal(relationshipMatrixYAML, &matrix); err != nil {
		panic("moodmatrix: failed to parse relationship_matrix.yaml: " + err.Error())
	}
}

// Mood-group partitions used by the fallback heuristic. Every canonical
// mood tag belongs to exactly one group; a tag absent from all four groups
// (e.g. one the mapping tables grow to include later) is treated as if it
// belonged to none, which simply limits the heuristic's ability to
// classify it (Multi-faceted is always a safe fallback).
var (
	positiveMoods  = set("heartwarming", "romantic", "hopeful", "inspiring")
	negativeMoods  = set("melancholic", "dark", "scary", "bittersweet")
	energeticMoods = set("exciting", "funny", "tense")
	calmMoods      = set("lighthearted", "nostalgic", "thought-provoking", "emotional", "mind-bending")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Analyze classifies an ordered list of canonical English mood tags.
func Analyze(moodTags []string) Relationship {
	if len(moodTags) <= 1 {
		return Relationship{Type: Simple, Source: SourceSimple, Confidence: "high"}
	}

	if rel, ok := findMatrixPair(moodTags); ok {
		return rel
	}

	return heuristicRelationship(moodTags)
}

// findMatrixPair iterates all unordered pairs from moodTags in a
// deterministic order (by position in the input list, i < j) and returns
// the first pair found in the curated matrix.
func findMatrixPair(moodTags []string) (Relationship, bool) {
	for i := 0; i < len(moodTags); i++ {
		for j := i + 1; j < len(moodTags); j++ {
			key := pairKey(moodTags[i], moodTags[j])
			if entry, ok := matrix[key]; ok {
				return Relationship{
					Type:          entry.Type,
					Template:      entry.Template,
					Description:   entry.Description,
					ZhDescription: entry.ZhDescription,
					Source:        SourceMatrix,
					Confidence:    "high",
				}, true
			}
		}
	}
	return Relationship{}, false
}

// heuristicRelationship is the fallback: partition the tag set into the
// four mood groups, then classify by how the partition overlaps.
func heuristicRelationship(moodTags []string) Relationship {
	var inPositive, inNegative, inEnergetic, inCalm []string
	for _, tag := range moodTags {
		switch {
		case positiveMoods[tag]:
			inPositive = append(inPositive, tag)
		case negativeMoods[tag]:
			inNegative = append(inNegative, tag)
		case energeticMoods[tag]:
			inEnergetic = append(inEnergetic, tag)
		case calmMoods[tag]:
			inCalm = append(inCalm, tag)
		}
	}

	relType := MultiFaceted
	switch {
	case len(inPositive) > 0 && len(inNegative) > 0:
		relType = Paradox
	case len(inEnergetic) > 0 && len(inCalm) > 0:
		relType = Paradox
	case len(inPositive) >= 2 || len(inNegative) >= 2 || len(inEnergetic) >= 2 || len(inCalm) >= 2:
		relType = Intensification
	}

	t1, t2 := moodTags[0], moodTags[1]
	return Relationship{
		Type:       relType,
		Template:   synthesizeTemplate(relType, t1, t2),
		Source:     SourceHeuristic,
		Confidence: "medium",
	}
}

// synthesizeTemplate builds the canned fallback sentence for a heuristic
// relationship type, parameterized by the first two tags (a short canned
// sentence parameterized by the first two tags).
func synthesizeTemplate(t RelationshipType, tag1, tag2 string) string {
	switch t {
	case Paradox:
		return fmt.Sprintf("A film balancing %s and %s, tonally complex and surprising", tag1, tag2)
	case Intensification:
		return fmt.Sprintf("A deeply %s and %s story, profoundly moving and contemplative", tag1, tag2)
	case Journey:
		return fmt.Sprintf("A journey from %s toward %s", tag1, tag2)
	default:
		return fmt.Sprintf("A %s and %s film", tag1, tag2)
	}
}

// KnownPairs returns the matrix's pair keys, sorted, for test fixtures and
// documentation purposes.
func KnownPairs() []string {
	keys := make([]string, 0, len(matrix))
	for k := range matrix {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
