package entity

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/constant"
	"github.com/xxxsen/dtxorg/internal/fsutil"
	"github.com/xxxsen/dtxorg/internal/model"
	"github.com/xxxsen/dtxorg/internal/proptext"
)

var (
	chartExt       = strings.TrimPrefix(constant.ChartExt, ".")
	bindingPattern = refPattern(`#L[0-9]FILE`, `(?i:`+regexp.QuoteMeta(chartExt)+`)`)
)

func labelProp(slot int) string { return fmt.Sprintf("#L%dLABEL", slot) }
func fileProp(slot int) string  { return fmt.Sprintf("#L%dFILE", slot) }

// Binding ties a difficulty slot (1-based, as written in the file) to a chart.
// Chart is nil while the declared file is missing or unreadable.
type Binding struct {
	Slot  int
	Label string
	File  string
	Chart *ChartFile
}

// IndexFile is the descriptor of one song package. It owns the charts it binds.
type IndexFile struct {
	file
	bindings []*Binding
}

// LoadIndex opens an existing index file and resolves its chart bindings.
// The result is never nil; check IsValid.
func LoadIndex(path string, env Env) *IndexFile {
	idx := &IndexFile{file: loadFile(path, env)}
	if idx.valid {
		idx.discoverBindings()
	}
	return idx
}

// CreateIndex synthesises an index for a directory that has none, binding every
// valid chart found beneath it. Nothing is written when no chart is usable.
// With adoptTitle the lowest-level chart's title replaces title.
func CreateIndex(title, path string, adoptTitle bool, env Env) *IndexFile {
	idx := &IndexFile{file: file{env: env.WithDefaults(), path: path, title: title}}
	log := idx.env.Log
	dir := idx.dir()

	files, err := fsutil.FindFiles(dir, "**/*"+constant.ChartExt)
	if err != nil {
		log.Error("list chart files failed", zap.String("dir", dir), zap.Error(err))
		return idx
	}
	charts := make([]*ChartFile, 0, len(files))
	for _, fp := range files {
		if ch := LoadChart(fp, dir, idx.env); ch.valid {
			charts = append(charts, ch)
		}
	}
	if len(charts) == 0 {
		log.Error("no chart files found", zap.String("dir", dir))
		return idx
	}
	SortCharts(charts)

	text := proptext.New(title, path)
	if adoptTitle {
		if t := charts[0].Title(); t != "" && text.Set(constant.PropTitle, t) {
			idx.title = t
		}
	}

	slots := DistributeSlots(charts)
	if len(charts) > len(slots) {
		log.Warn("more charts than difficulty slots, extra charts left unbound",
			zap.Int("charts", len(charts)),
			zap.String("dir", dir),
		)
	}
	var sb strings.Builder
	sb.WriteString("\r\n")
	for i, ch := range slots {
		if ch == nil {
			continue
		}
		slot := i + 1
		rel, err := filepath.Rel(dir, ch.FilePath())
		if err != nil {
			rel = filepath.Base(ch.FilePath())
		}
		fmt.Fprintf(&sb, "%s: %s\r\n%s: %s\r\n\r\n", labelProp(slot), constant.SlotLabels[i], fileProp(slot), rel)
		idx.bindings = append(idx.bindings, &Binding{Slot: slot, Label: constant.SlotLabels[i], File: rel, Chart: ch})
	}
	text.Append(sb.String())

	if err := text.Save(); err != nil {
		log.Error("create index file failed", zap.String("title", idx.title), zap.String("path", path), zap.Error(err))
		idx.bindings = nil
		return idx
	}
	idx.text = text
	idx.valid = true
	log.Info("created index file", zap.String("title", idx.title), zap.String("dir", dir))
	return idx
}

// DistributeSlots lays sorted charts over the difficulty slots. With fewer
// charts than slots the gaps go where the levels say: a chart above the
// threshold of its slot moves up while the next slot is free.
func DistributeSlots(charts []*ChartFile) []*ChartFile {
	slots := make([]*ChartFile, len(constant.SlotLabels))
	copy(slots, charts)
	if len(charts) >= len(slots) {
		return slots
	}
	for i := len(constant.SlotThresholds) - 1; i >= 0; i-- {
		if i >= len(constant.SlotThresholds) || slots[i] == nil || slots[i+1] != nil {
			continue
		}
		if slots[i].level > constant.SlotThresholds[i] {
			slots[i+1], slots[i] = slots[i], nil
			// look at the moved chart again in its new slot
			i += 2
		}
	}
	return slots
}

func (idx *IndexFile) discoverBindings() {
	dir := idx.dir()
	idx.bindings = nil
	for _, ref := range scanRefs(idx.text.Raw(), bindingPattern) {
		slot := int(ref.prop[2] - '0')
		b := &Binding{
			Slot:  slot,
			Label: strings.TrimSpace(idx.property(labelProp(slot))),
			File:  strings.TrimSpace(ref.value),
		}
		if chartPath := fsutil.ResolveRef(dir, b.File); fsutil.FileExists(chartPath) {
			if ch := LoadChart(chartPath, dir, idx.env); ch.valid {
				b.Chart = ch
			}
		}
		idx.bindings = append(idx.bindings, b)
	}
}

// Bindings returns the declared slot bindings in file order, dangling ones included.
func (idx *IndexFile) Bindings() []Binding {
	out := make([]Binding, 0, len(idx.bindings))
	for _, b := range idx.bindings {
		out = append(out, *b)
	}
	return out
}

// Charts returns the loaded charts sorted by level.
func (idx *IndexFile) Charts() []*ChartFile {
	charts := make([]*ChartFile, 0, len(idx.bindings))
	for _, b := range idx.bindings {
		if b.Chart != nil {
			charts = append(charts, b.Chart)
		}
	}
	SortCharts(charts)
	return charts
}

// RenameContainingFolderToTitle renames the package folder and re-resolves the
// chart bindings against the new location.
func (idx *IndexFile) RenameContainingFolderToTitle() bool {
	moved, ok := idx.renameFolder()
	if moved {
		idx.discoverBindings()
	}
	return ok
}

// FindAndRepairProblems checks every slot binding, then cascades into each
// bound chart. Replacement charts are any chart files in the package not yet
// named by the index.
func (idx *IndexFile) FindAndRepairProblems(autoFix bool) []model.Problem {
	if !idx.valid {
		return nil
	}
	dir := idx.dir()
	pool := newCandidatePool(dir, true)
	problems := make([]model.Problem, 0)

	for _, b := range append([]*Binding(nil), idx.bindings...) {
		if fsutil.FileExists(fsutil.ResolveRef(dir, b.File)) {
			continue
		}
		b := b
		ref := reference{prop: fileProp(b.Slot), value: b.File, ext: chartExt}
		problems = append(problems, idx.resolve(ref, autoFix, pool,
			func() bool { return idx.unbind(b) },
			func(candidate string) (string, bool) { return idx.rebind(b, candidate) },
		))
	}

	for _, ch := range idx.Charts() {
		problems = append(problems, ch.FindAndRepairProblems(autoFix)...)
	}
	return problems
}

// unbind deletes both properties of the slot and forgets the binding.
func (idx *IndexFile) unbind(b *Binding) bool {
	if !idx.text.Delete(fileProp(b.Slot)) {
		return false
	}
	idx.text.Delete(labelProp(b.Slot))
	for i, cur := range idx.bindings {
		if cur == b {
			idx.bindings = append(idx.bindings[:i], idx.bindings[i+1:]...)
			break
		}
	}
	return idx.save()
}

// rebind points the slot at candidate, relative to the index. A failed save is
// logged but the new binding stays in memory.
func (idx *IndexFile) rebind(b *Binding, candidate string) (string, bool) {
	log := idx.env.Log
	rel, err := filepath.Rel(idx.dir(), candidate)
	if err != nil {
		log.Error("compute relative path failed", zap.String("target", candidate), zap.Error(err))
		return "", false
	}
	if !idx.text.Set(fileProp(b.Slot), rel) {
		log.Error("change property failed", zap.String("property", fileProp(b.Slot)), zap.String("path", idx.path))
		return "", false
	}
	b.File = rel
	b.Chart = nil
	if ch := LoadChart(candidate, idx.dir(), idx.env); ch.valid {
		b.Chart = ch
	}
	idx.save()
	return rel, true
}
