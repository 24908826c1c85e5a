package aimlab

const journalLimit = 100

// journal is the human-readable message stream shown next to the canvas.
// Newest entries come first.
type journal []string

func (j *journal) add(msg string) {
	*j = append([]string{msg}, *j...)
	if len(*j) > journalLimit {
		*j = (*j)[:journalLimit]
	}
}

func (j *journal) reset(msgs ...string) {
	*j = append((*j)[:0:0], msgs...)
}

func (j journal) copy() []string {
	out := make([]string, len(j))
	copy(out, j)
	return out
}
