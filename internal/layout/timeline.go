package layout

import "strconv"

// TimelineStep is one animation frame definition.
type TimelineStep struct {
	Key      string
	Offset   Offset
	Duration float64
	// Next is the index of the following step.
	Next int
}

// Timeline is a closed chain of steps: following Next from step 0 len(Steps)
// times returns to step 0.
type Timeline struct {
	Namespace string
	Steps     []TimelineStep
}

func (g *Generator) timeline(n int, frameRate float64, namespace string) *Timeline {
	base := namespace + "." + g.cfg.AnimationName
	duration := 1 / frameRate
	offsets := g.sweep(n)

	steps := make([]TimelineStep, n)
	for i := range steps {
		key := base
		if i > 0 {
			key = base + "-" + strconv.Itoa(i)
		}
		steps[i] = TimelineStep{
			Key:      key,
			Offset:   offsets[i],
			Duration: duration,
			Next:     (i + 1) % n,
		}
	}
	return &Timeline{Namespace: namespace, Steps: steps}
}

// Ref returns the reference string of step i.
func (t *Timeline) Ref(i int) string {
	return "@" + t.Steps[i].Key
}

// Document renders the timeline in the engine's flat object format.
func (t *Timeline) Document() Object {
	doc := make(Object, 0, len(t.Steps)+1)
	doc = append(doc, Member{Key: "namespace", Value: t.Namespace})
	for _, s := range t.Steps {
		doc = append(doc, Member{Key: s.Key, Value: Object{
			{Key: "from", Value: s.Offset},
			{Key: "to", Value: s.Offset},
			{Key: "next", Value: t.Ref(s.Next)},
			{Key: "anim_type", Value: "offset"},
			{Key: "duration", Value: s.Duration},
		}})
	}
	return doc
}
