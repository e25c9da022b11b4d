//go:build !integration

package postgres

import (
	"reflect"
	"testing"

	"github.com/roberjo/AuraStream-sub001/internal/domain/model"
)

func TestChangedOutcomes(t *testing.T) {
	res := func(neg float64) *model.Classification {
		return &model.Classification{
			Label:  model.SentimentNegative,
			Scores: map[model.Sentiment]float64{model.SentimentNegative: neg, model.SentimentPositive: 1 - neg},
		}
	}
	pending := model.JobItem{Index: 0, Text: "a", Status: model.ItemStatusPending}

	t.Run("should ignore items whose outcome is unchanged", func(t *testing.T) {
		before := []model.JobItem{pending, {Index: 1, Status: model.ItemStatusSucceeded, Result: res(0.9)}}
		after := []model.JobItem{pending, {Index: 1, Status: model.ItemStatusSucceeded, Result: res(0.9)}}
		if got := changedOutcomes(before, after); len(got) != 0 {
			t.Errorf("expected no writes, got %v", got)
		}
	})

	t.Run("should ignore text missing from the snapshot", func(t *testing.T) {
		after := pending
		after.Text = ""
		if outcomeChanged(pending, after) {
			t.Error("text is not part of the outcome")
		}
	})

	t.Run("should pick up new results and failures", func(t *testing.T) {
		before := []model.JobItem{pending, pending, {Index: 2, Status: model.ItemStatusSucceeded, Result: res(0.9)}}
		after := []model.JobItem{
			{Index: 0, Status: model.ItemStatusSucceeded, Fingerprint: "fp:v1:a", Result: res(0.7)},
			{Index: 1, Status: model.ItemStatusFailed, ErrorKind: "BACKEND_TIMEOUT", ErrorMessage: "slow"},
			{Index: 2, Status: model.ItemStatusSucceeded, Result: res(0.9)},
		}
		if got := changedOutcomes(before, after); !reflect.DeepEqual(got, []int{0, 1}) {
			t.Errorf("expected [0 1], got %v", got)
		}
	})

	t.Run("should compare scores by value", func(t *testing.T) {
		a := model.JobItem{Status: model.ItemStatusSucceeded, Result: res(0.9)}
		b := model.JobItem{Status: model.ItemStatusSucceeded, Result: res(0.8)}
		if !outcomeChanged(a, b) {
			t.Error("expected differing scores to count as a change")
		}
	})
}
