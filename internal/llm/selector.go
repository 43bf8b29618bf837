package llm

import (
	"errors"
	"sort"
)

// Tasks the model table knows about.
const (
	TaskChapterDetection  = "chapter_detection"
	TaskSummarization     = "summarization"
	TaskConceptExtraction = "concept_extraction"
)

// ErrNoModel indicates no model fits the task and document size.
var ErrNoModel = errors.New("no suitable model available")

// Model describes one entry in the model table.
type Model struct {
	Name          string
	ContextWindow int // tokens
	Capabilities  []string
	CostPerToken  float64
	Quality       float64
}

// models is the selection table, in declaration order. Ties resolve to the
// earlier entry.
var models = []Model{
	{
		Name:          "claude-3-5-sonnet",
		ContextWindow: 200000,
		Capabilities:  []string{TaskChapterDetection, TaskSummarization, TaskConceptExtraction},
		CostPerToken:  0.000003,
		Quality:       0.9,
	},
	{
		Name:          "claude-3-haiku",
		ContextWindow: 100000,
		Capabilities:  []string{TaskChapterDetection, TaskSummarization},
		CostPerToken:  0.000001,
		Quality:       0.8,
	},
	{
		Name:          "gpt-4o",
		ContextWindow: 128000,
		Capabilities:  []string{TaskChapterDetection, TaskSummarization, TaskConceptExtraction},
		CostPerToken:  0.000005,
		Quality:       0.95,
	},
	{
		Name:          "gpt-3.5-turbo",
		ContextWindow: 16000,
		Capabilities:  []string{TaskSummarization},
		CostPerToken:  0.0000005,
		Quality:       0.7,
	},
}

// Models returns a copy of the model table.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// Selection is the outcome of a model choice for one document.
type Selection struct {
	Model         string  `json:"model"`
	ContextWindow int     `json:"context_window"`
	Quality       float64 `json:"quality"`
	CostPerToken  float64 `json:"cost_per_token"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Select picks a model for the task and document size (in characters). Token
// counts are estimated at 4 characters per token. With budgetConstrained the
// cheapest fitting model wins, otherwise the highest quality.
func Select(task string, documentSize int, budgetConstrained bool) (Selection, error) {
	estimatedTokens := float64(documentSize) / 4

	var suitable []Model
	for _, m := range models {
		if estimatedTokens <= float64(m.ContextWindow) && supports(m, task) {
			suitable = append(suitable, m)
		}
	}
	if len(suitable) == 0 {
		return Selection{}, ErrNoModel
	}

	if budgetConstrained {
		sort.SliceStable(suitable, func(i, j int) bool {
			return suitable[i].CostPerToken < suitable[j].CostPerToken
		})
	} else {
		sort.SliceStable(suitable, func(i, j int) bool {
			return suitable[i].Quality > suitable[j].Quality
		})
	}

	chosen := suitable[0]
	return Selection{
		Model:         chosen.Name,
		ContextWindow: chosen.ContextWindow,
		Quality:       chosen.Quality,
		CostPerToken:  chosen.CostPerToken,
		EstimatedCost: estimatedTokens * chosen.CostPerToken,
	}, nil
}

func supports(m Model, task string) bool {
	for _, c := range m.Capabilities {
		if c == task {
			return true
		}
	}
	return false
}
