// Package council holds deliberation-domain logic that is independent of the
// transport: anonymization reconciliation and ranking summaries.
package council

import (
	"sort"

	"github.com/llm-council/council-client/internal/model"
)

// Reconciler resolves opaque response labels ("Response A") back to model
// identities for rendering and export. Resolution is gated on the arrival of
// the same message's stage2 metadata: council members are evaluated by peers
// without knowing which model produced which answer, and the client must not
// leak identities earlier than the protocol itself does. Labels from one
// message carry no meaning in another, so the mapping is always looked up on
// the message being rendered.
type Reconciler struct {
	names map[string]string
}

// NewReconciler creates a reconciler over a model-ID-to-display-name map,
// typically built from GET /api/models.
func NewReconciler(names map[string]string) *Reconciler {
	if names == nil {
		names = map[string]string{}
	}
	return &Reconciler{names: names}
}

// ModelName returns the display name for a model identifier, or the
// identifier itself when the registry does not know it.
func (r *Reconciler) ModelName(id string) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	return id
}

// ResolveLabel maps an anonymous label to a display name using the mapping
// carried by the same message. Before that mapping exists the label is
// returned verbatim and ok is false.
func (r *Reconciler) ResolveLabel(msg *model.Message, label string) (string, bool) {
	if msg == nil || msg.Stage2 == nil {
		return label, false
	}
	id, ok := msg.Stage2.Metadata.LabelToModel[label]
	if !ok {
		return label, false
	}
	return r.ModelName(id), true
}

// RankedModels returns the message's aggregate ordering with display names
// applied, best rank first. Entries missing a model identifier keep their
// label.
func (r *Reconciler) RankedModels(msg *model.Message) []model.AggregateRanking {
	if msg == nil || msg.Stage2 == nil {
		return nil
	}
	ranked := make([]model.AggregateRanking, len(msg.Stage2.Metadata.AggregateRankings))
	copy(ranked, msg.Stage2.Metadata.AggregateRankings)
	for i := range ranked {
		if ranked[i].Model != "" {
			ranked[i].Model = r.ModelName(ranked[i].Model)
		} else if ranked[i].Label != "" {
			name, _ := r.ResolveLabel(msg, ranked[i].Label)
			ranked[i].Model = name
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageRank < ranked[j].AverageRank
	})
	return ranked
}
