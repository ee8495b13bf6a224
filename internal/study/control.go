package study

import (
	"fmt"
	"strings"
)

// orderControl moves the control group to the front and assigns indices.
func (b *builder) orderControl() error {
	var flagged []int
	for i, g := range b.groups {
		if g.IsControl {
			flagged = append(flagged, i)
		}
	}

	if b.opts.ControlPolicy == ControlStrict && len(flagged) != 1 {
		return fmt.Errorf("%w: %d groups flagged as control", ErrAmbiguousControl, len(flagged))
	}

	controlIdx := 0
	switch len(flagged) {
	case 0:
		if len(b.groups) > 0 {
			b.diag.add(NoControlGroup, b.groups[0].Name, "", "no group flagged as control, using first group as reference")
		}
	case 1:
		controlIdx = flagged[0]
	default:
		controlIdx = flagged[0]
		names := make([]string, 0, len(flagged))
		for _, i := range flagged {
			names = append(names, b.groups[i].Name)
		}
		for _, i := range flagged[1:] {
			b.groups[i].IsControl = false
		}
		b.diag.add(AmbiguousControlGroup, b.groups[controlIdx].Name, "",
			fmt.Sprintf("groups %s all flagged as control, keeping the first", strings.Join(names, ", ")))
	}

	if controlIdx > 0 {
		ctrl := b.groups[controlIdx]
		copy(b.groups[1:controlIdx+1], b.groups[:controlIdx])
		b.groups[0] = ctrl
	}
	for i, g := range b.groups {
		g.Index = i
	}
	return nil
}
