package diagnostics

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Report collects warnings from concurrent stages. A warning with the same
// kind and key is only kept once.
type Report struct {
	mutex    sync.Mutex
	warnings []Warning
	seen     map[string]bool
}

func NewReport() *Report {
	return &Report{
		seen: map[string]bool{},
	}
}

func (r *Report) Add(warning Warning) {
	if r == nil {
		return
	}

	key := string(warning.Kind()) + ":" + warning.Key()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.warnings = append(r.warnings, warning)

	log.Debug().Str("stage", string(warning.Stage())).Str("kind", string(warning.Kind())).Msg(warning.Error())
}

// Warnings returns every recorded warning ordered by stage, kind and key
func (r *Report) Warnings() []Warning {
	r.mutex.Lock()
	warnings := make([]Warning, len(r.warnings))
	copy(warnings, r.warnings)
	r.mutex.Unlock()

	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Stage() != warnings[j].Stage() {
			return warnings[i].Stage() < warnings[j].Stage()
		}
		if warnings[i].Kind() != warnings[j].Kind() {
			return warnings[i].Kind() < warnings[j].Kind()
		}
		return warnings[i].Key() < warnings[j].Key()
	})

	return warnings
}

func (r *Report) Count(kind WarningKind) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	count := 0
	for _, warning := range r.warnings {
		if warning.Kind() == kind {
			count++
		}
	}

	return count
}

func (r *Report) Counts() map[WarningKind]int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	counts := map[WarningKind]int{}
	for _, warning := range r.warnings {
		counts[warning.Kind()]++
	}

	return counts
}

// Log writes a one line summary per warning kind
func (r *Report) Log() {
	counts := r.Counts()
	if len(counts) == 0 {
		log.Info().Msg("No data quality warnings")
		return
	}

	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		log.Warn().Str("kind", kind).Int("count", counts[WarningKind(kind)]).Msg("Data quality warnings")
	}
}
