package coupling

// FileWeight is the per-file accumulator record. Additive and Modifier evolve
// independently and combine only in Final.
type FileWeight struct {
	Additive float64
	Modifier float64
	order    int // first-seen position, used to break ranking ties
}

// Final is the score used for ranking.
func (w FileWeight) Final() float64 {
	return w.Additive * w.Modifier
}

// Accumulator maps candidate paths to their weights for a single query.
type Accumulator struct {
	weights map[string]*FileWeight
	order   []string

	Processed int // commits that contributed weight
	Skipped   int // empty or oversized commits
}

func newAccumulator() *Accumulator {
	return &Accumulator{weights: make(map[string]*FileWeight)}
}

// Len returns the number of distinct candidate files.
func (a *Accumulator) Len() int {
	return len(a.order)
}

// Get returns the record for file.
func (a *Accumulator) Get(file string) (FileWeight, bool) {
	w, ok := a.weights[file]
	if !ok {
		return FileWeight{}, false
	}
	return *w, true
}

// Files returns candidates in first-seen order.
func (a *Accumulator) Files() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *Accumulator) add(file string, contribution, repeatBoost float64) {
	if w, ok := a.weights[file]; ok {
		w.Additive += contribution
		w.Modifier *= repeatBoost
		return
	}
	a.weights[file] = &FileWeight{Additive: contribution, Modifier: 1, order: len(a.order)}
	a.order = append(a.order, file)
}

// Accumulate folds newest-first commit file-sets into an Accumulator.
//
// Each counted commit spreads the running base weight evenly over its files,
// then the base weight decays. Commits with no files or more than
// MaxFilesPerCommit files are skipped without decaying the base weight.
func Accumulate(fileSets [][]string, h Heuristics) *Accumulator {
	acc := newAccumulator()
	base := h.BaseWeight

	for _, files := range fileSets {
		if len(files) == 0 || len(files) > h.MaxFilesPerCommit {
			acc.Skipped++
			continue
		}

		contribution := base / float64(len(files))
		for _, f := range files {
			acc.add(f, contribution, h.RepeatBoost)
		}
		acc.Processed++
		base *= h.DecayFactor
	}

	return acc
}
