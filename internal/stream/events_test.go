package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-council/council-client/internal/model"
)

func TestParseEventStageKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "stage1 start",
			raw:  `{"type":"stage1_start"}`,
			want: Stage1StartEvent{},
		},
		{
			name: "stage1 complete",
			raw:  `{"type":"stage1_complete","data":[{"model":"gpt-5.1","response":"A","reasoning":"because"}]}`,
			want: Stage1CompleteEvent{Data: []model.Stage1Response{
				{Model: "gpt-5.1", Response: "A", Reasoning: "because"},
			}},
		},
		{
			name: "stage2 complete with metadata",
			raw: `{"type":"stage2_complete",` +
				`"data":[{"model":"gpt-5.1","ranking":"1. Response B","parsed_ranking":["Response B"]}],` +
				`"metadata":{"label_to_model":{"Response B":"gemini-3-pro"},` +
				`"aggregate_rankings":[{"model":"gemini-3-pro","label":"Response B","average_rank":1.5}]}}`,
			want: Stage2CompleteEvent{
				Data: []model.RankingJudgment{
					{Model: "gpt-5.1", Ranking: "1. Response B", ParsedRanking: []string{"Response B"}},
				},
				Metadata: model.Stage2Metadata{
					LabelToModel: map[string]string{"Response B": "gemini-3-pro"},
					AggregateRankings: []model.AggregateRanking{
						{Model: "gemini-3-pro", Label: "Response B", AverageRank: 1.5},
					},
				},
			},
		},
		{
			name: "stage3 complete",
			raw:  `{"type":"stage3_complete","data":{"model":"claude-sonnet-4-5","response":"final","confidence":"high"}}`,
			want: Stage3CompleteEvent{Data: model.Stage3Payload{
				Model: "claude-sonnet-4-5", Response: "final", Confidence: "high",
			}},
		},
		{
			name: "chat response",
			raw:  `{"type":"chat_response","data":{"content":"follow-up answer","reasoning":"r"}}`,
			want: ChatResponseEvent{Data: ChatPayload{Content: "follow-up answer", Reasoning: "r"}},
		},
		{
			name: "title",
			raw:  `{"type":"title_complete","data":{"title":"Capital of France"}}`,
			want: TitleCompleteEvent{Title: "Capital of France"},
		},
		{
			name: "complete with costs",
			raw:  `{"type":"complete","data":{"turn_cost":0.0123,"total_cost":0.5}}`,
			want: CompleteEvent{Data: CostPayload{TurnCost: 0.0123, TotalCost: 0.5}},
		},
		{
			name: "error",
			raw:  `{"type":"error","message":"upstream provider timed out"}`,
			want: ErrorEvent{Message: "upstream provider timed out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEventUnknownKind(t *testing.T) {
	raw := `{"type":"stage4_start","data":{"whatever":true}}`
	got, err := ParseEvent([]byte(raw))
	require.NoError(t, err)

	unknown, ok := got.(UnknownEvent)
	require.True(t, ok)
	assert.Equal(t, EventType("stage4_start"), unknown.Kind)
	assert.JSONEq(t, raw, string(unknown.Raw))
}

func TestParseEventMalformed(t *testing.T) {
	for _, raw := range []string{
		`{"type":`,
		`not json at all`,
		`{"no_type_field":true}`,
		`{"type":"stage1_complete","data":{"not":"an array"}}`,
	} {
		_, err := ParseEvent([]byte(raw))
		assert.Error(t, err, "raw=%s", raw)
	}
}
