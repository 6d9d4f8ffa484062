package conditions

import (
	"fmt"
	"slices"
	"sort"
)

// ThresholdPayload is satisfied when every carried sub-fulfillment verifies
// and they number at least threshold. The remaining children are bare
// conditions. Both lists are kept in SET OF order.
type ThresholdPayload struct {
	threshold       int
	subfulfillments []*Fulfillment
	subconditions   []Condition
	depth           int
}

// NewThresholdFulfillment builds a THRESHOLD-SHA-256 fulfillment over the
// union of subfulfillments and subconditions. If more than threshold
// sub-fulfillments are given, the ones with the shortest encodings are kept
// and the rest are carried as bare conditions.
func NewThresholdFulfillment(threshold int, subfulfillments []*Fulfillment, subconditions []Condition) (*Fulfillment, error) {
	for _, f := range subfulfillments {
		if f == nil {
			return nil, conderr(CC_ERR_NULL_INPUT, "nil subfulfillment")
		}
	}
	for _, c := range subconditions {
		if c.IsZero() {
			return nil, conderr(CC_ERR_NULL_INPUT, "empty subcondition")
		}
	}
	if threshold < 1 || threshold > MaxThreshold {
		return nil, conderr(CC_ERR_STRUCTURAL, fmt.Sprintf("threshold %d out of range", threshold))
	}
	if total := len(subfulfillments) + len(subconditions); threshold > total {
		return nil, conderr(CC_ERR_STRUCTURAL, fmt.Sprintf("threshold %d exceeds child count %d", threshold, total))
	}
	if len(subfulfillments) < threshold {
		return nil, conderr(CC_ERR_STRUCTURAL, fmt.Sprintf("threshold %d needs at least as many subfulfillments, got %d", threshold, len(subfulfillments)))
	}

	fs := slices.Clone(subfulfillments)
	sortFulfillments(fs)
	cs := slices.Clone(subconditions)
	if len(fs) > threshold {
		kept := cheapestFulfillments(fs, threshold)
		for _, f := range fs {
			if !slices.Contains(kept, f) {
				cs = append(cs, f.cond)
			}
		}
		fs = kept
	}
	sortConditions(cs)

	p, err := newThresholdPayload(fs, cs)
	if err != nil {
		return nil, err
	}
	return newFulfillment(p)
}

// newThresholdPayload takes both lists already sorted; the threshold is the
// number of sub-fulfillments.
func newThresholdPayload(fs []*Fulfillment, cs []Condition) (*ThresholdPayload, error) {
	p := &ThresholdPayload{
		threshold:       len(fs),
		subfulfillments: fs,
		subconditions:   cs,
	}
	if p.threshold < 1 || p.threshold > MaxThreshold {
		return nil, conderr(CC_ERR_STRUCTURAL, fmt.Sprintf("threshold %d out of range", p.threshold))
	}
	all := p.Children()
	for i := 1; i < len(all); i++ {
		if all[i-1].Equal(all[i]) {
			return nil, conderr(CC_ERR_STRUCTURAL, "duplicate child condition")
		}
	}
	for _, f := range fs {
		if d := f.Depth() + 1; d > p.depth {
			p.depth = d
		}
	}
	if p.depth == 0 {
		p.depth = 1
	}
	return p, nil
}

func sortFulfillments(fs []*Fulfillment) {
	sort.SliceStable(fs, func(i, j int) bool { return compareEncodings(fs[i].enc, fs[j].enc) < 0 })
}

func sortConditions(cs []Condition) {
	sort.SliceStable(cs, func(i, j int) bool { return compareEncodings(cs[i].enc, cs[j].enc) < 0 })
}

// cheapestFulfillments keeps the n shortest encodings of an already sorted
// list; SET OF order sorts by length first.
func cheapestFulfillments(sorted []*Fulfillment, n int) []*Fulfillment {
	return slices.Clone(sorted[:n])
}

func (p *ThresholdPayload) Threshold() int { return p.threshold }

func (p *ThresholdPayload) Subfulfillments() []*Fulfillment { return slices.Clone(p.subfulfillments) }

func (p *ThresholdPayload) Subconditions() []Condition { return slices.Clone(p.subconditions) }

// Children returns the conditions of every child, fulfilled or not, in SET
// OF order.
func (p *ThresholdPayload) Children() []Condition {
	all := make([]Condition, 0, len(p.subfulfillments)+len(p.subconditions))
	for _, f := range p.subfulfillments {
		all = append(all, f.cond)
	}
	all = append(all, p.subconditions...)
	sortConditions(all)
	return all
}

func (p *ThresholdPayload) Type() TypeID { return THRESHOLD_SHA256 }

// Cost sums the threshold most expensive children and adds a fixed amount
// per child.
func (p *ThresholdPayload) Cost() uint64 {
	all := p.Children()
	costs := make([]uint64, len(all))
	for i, c := range all {
		costs[i] = c.cost
	}
	slices.SortFunc(costs, func(a, b uint64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	var sum uint64
	for _, c := range costs[:p.threshold] {
		sum += c
	}
	return sum + thresholdCostPerChild*uint64(len(all))
}

func (p *ThresholdPayload) FingerprintContents() []byte {
	var set []byte
	for _, c := range p.Children() {
		set = append(set, c.enc...)
	}
	body := AppendTaggedObject(nil, 0, appendUintBody(nil, uint64(p.threshold)))
	body = AppendTaggedConstructedObject(body, 1, set)
	return appendSequence(nil, body)
}

func (p *ThresholdPayload) Subtypes() TypeSet {
	var s TypeSet
	for _, c := range p.Children() {
		s |= c.subtypes
		s = s.Add(c.typ)
	}
	return s.Remove(THRESHOLD_SHA256)
}

func (p *ThresholdPayload) Depth() int { return p.depth }

func (p *ThresholdPayload) AppendBody(dst []byte) []byte {
	var fset, cset []byte
	for _, f := range p.subfulfillments {
		fset = append(fset, f.enc...)
	}
	for _, c := range p.subconditions {
		cset = append(cset, c.enc...)
	}
	dst = AppendTaggedConstructedObject(dst, 0, fset)
	return AppendTaggedConstructedObject(dst, 1, cset)
}

// Verify requires every carried sub-fulfillment to verify; there is no
// partial credit. The child set itself is bound by the fingerprint, which
// the verifier re-derived before dispatching here.
func (p *ThresholdPayload) Verify(v *Verifier, message []byte) (bool, error) {
	if len(p.subfulfillments) != p.threshold {
		return false, conderr(CC_ERR_STRUCTURAL, "subfulfillment count differs from threshold")
	}
	valid := 0
	for i, sub := range p.subfulfillments {
		ok, err := v.verify(sub, sub.cond, message)
		if err != nil {
			return false, err
		}
		if !ok {
			v.log().Debug("threshold subfulfillment invalid", "index", i, "type", sub.typ.Name())
			return false, nil
		}
		valid++
	}
	if valid < p.threshold {
		v.log().Debug("threshold not met", "valid", valid, "threshold", p.threshold)
		return false, nil
	}
	return true, nil
}

func decodeThresholdBody(body []byte, off int, depth int) (Payload, error) {
	r := newDERReader(body, off)
	fsBody, fsOff, err := r.readElement(derTagTagged + derTagConstructed + 0)
	if err != nil {
		return nil, err
	}
	csBody, csOff, err := r.readElement(derTagTagged + derTagConstructed + 1)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}

	var fs []*Fulfillment
	fr := newDERReader(fsBody, fsOff)
	var prev []byte
	for !fr.empty() {
		start := fr.offset()
		f, err := decodeFulfillment(fr, depth+1)
		if err != nil {
			return nil, err
		}
		if prev != nil && compareEncodings(prev, f.enc) > 0 {
			return nil, decodeErr(start, "subfulfillments are not in SET OF order")
		}
		prev = f.enc
		fs = append(fs, f)
	}

	var cs []Condition
	cr := newDERReader(csBody, csOff)
	prev = nil
	for !cr.empty() {
		start := cr.offset()
		c, err := decodeCondition(cr)
		if err != nil {
			return nil, err
		}
		if prev != nil && compareEncodings(prev, c.enc) > 0 {
			return nil, decodeErr(start, "subconditions are not in SET OF order")
		}
		prev = c.enc
		cs = append(cs, c)
	}

	p, err := newThresholdPayload(fs, cs)
	if err != nil {
		return nil, err
	}
	return p, nil
}
