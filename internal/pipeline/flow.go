package pipeline

import (
	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

const (
	TierGender = iota + 1
	TierCategory
	TierPayment
)

// BuildFlowGraph builds the gender -> category -> payment funnel weighted by
// revenue. Each (gender, category, payment) group with positive net revenue
// contributes it to one tier-1 -> tier-2 link and one tier-2 -> tier-3 link,
// so a category's inbound weight always equals its outbound weight. Groups
// netting to zero or below (returns) are left out, so every link is
// strictly positive and every node has a link. Nodes and links appear in the
// order their groups are first met in records.
func BuildFlowGraph(records []models.Record) models.FlowGraph {
	type leafKey struct{ gender, category, payment string }

	order := make([]leafKey, 0)
	leaves := make(map[leafKey]decimal.Decimal)
	for _, r := range records {
		k := leafKey{r.Gender, r.Category, r.PaymentMethod}
		if _, seen := leaves[k]; !seen {
			order = append(order, k)
		}
		leaves[k] = leaves[k].Add(r.Revenue())
	}

	b := newFlowBuilder()
	for _, k := range order {
		w := leaves[k]
		if !w.IsPositive() {
			continue
		}
		g := b.node(TierGender, k.gender)
		c := b.node(TierCategory, k.category)
		p := b.node(TierPayment, k.payment)
		b.link(g, c, w)
		b.link(c, p, w)
	}
	return b.graph()
}

// NodeID is the identity of a flow node: equal labels on different tiers
// are different nodes.
func NodeID(tier int, label string) string {
	switch tier {
	case TierGender:
		return "gender:" + label
	case TierCategory:
		return "category:" + label
	default:
		return "payment:" + label
	}
}

type flowBuilder struct {
	nodes     []models.FlowNode
	nodeIndex map[string]struct{}
	edges     []models.FlowEdge
	edgeIndex map[[2]string]int
}

func newFlowBuilder() *flowBuilder {
	return &flowBuilder{
		nodes:     make([]models.FlowNode, 0),
		nodeIndex: make(map[string]struct{}),
		edges:     make([]models.FlowEdge, 0),
		edgeIndex: make(map[[2]string]int),
	}
}

func (b *flowBuilder) node(tier int, label string) string {
	id := NodeID(tier, label)
	if _, ok := b.nodeIndex[id]; !ok {
		b.nodeIndex[id] = struct{}{}
		b.nodes = append(b.nodes, models.FlowNode{ID: id, Label: label, Tier: tier})
	}
	return id
}

// link adds w to the source -> target link, creating it on first use.
func (b *flowBuilder) link(source, target string, w decimal.Decimal) {
	key := [2]string{source, target}
	if i, ok := b.edgeIndex[key]; ok {
		b.edges[i].Weight = b.edges[i].Weight.Add(w)
		return
	}
	b.edgeIndex[key] = len(b.edges)
	b.edges = append(b.edges, models.FlowEdge{Source: source, Target: target, Weight: w})
}

func (b *flowBuilder) graph() models.FlowGraph {
	return models.FlowGraph{Nodes: b.nodes, Edges: b.edges}
}
