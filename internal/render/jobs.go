package render

import (
	"path/filepath"
	"strings"

	"github.com/satindergrewal/easel/internal/catalog"
)

// Kind separates catalog assets from validation waveforms.
type Kind string

const (
	KindWellness Kind = "wellness"
	KindTest     Kind = "test"
)

// Job is one asset to synthesize and write.
type Job struct {
	Name     string // filename without extension
	Kind     Kind
	Profile  string // wellness only
	Texture  string // wellness only
	TestID   string // test only
	Duration int    // seconds
	Filename string
}

// Jobs lists every asset of the catalog: each (profile, texture, duration)
// in table order, then each test profile.
func Jobs(cat *catalog.Catalog) []Job {
	var jobs []Job
	for _, p := range cat.Profiles {
		for _, tx := range cat.Textures {
			for _, d := range p.Durations {
				fn := catalog.WellnessFilename(p.Name, tx.Name, d)
				jobs = append(jobs, Job{
					Name:     strings.TrimSuffix(fn, filepath.Ext(fn)),
					Kind:     KindWellness,
					Profile:  p.Name,
					Texture:  tx.Name,
					Duration: d,
					Filename: fn,
				})
			}
		}
	}
	for _, tp := range cat.TestProfiles {
		fn := catalog.TestFilename(tp.ID, tp.Duration)
		jobs = append(jobs, Job{
			Name:     strings.TrimSuffix(fn, filepath.Ext(fn)),
			Kind:     KindTest,
			TestID:   tp.ID,
			Duration: tp.Duration,
			Filename: fn,
		})
	}
	return jobs
}

// Filter keeps the jobs whose name starts with prefix. An empty prefix keeps
// everything.
func Filter(jobs []Job, prefix string) []Job {
	if prefix == "" {
		return jobs
	}
	var out []Job
	for _, j := range jobs {
		if strings.HasPrefix(j.Name, prefix) {
			out = append(out, j)
		}
	}
	return out
}

// Find returns the job with the given asset name. A trailing ".wav" is
// accepted.
func Find(jobs []Job, name string) (Job, bool) {
	name = strings.TrimSuffix(name, ".wav")
	for _, j := range jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}
