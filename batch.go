package cococonv

// Batch conversion of several datasets.

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// JobFile lists conversions to run together.
type JobFile struct {
	Workers int   `yaml:"workers"` // Concurrent conversions; zero uses the number of CPUs.
	Jobs    []Job `yaml:"jobs"`
}

// LoadJobFile reads the YAML job file at path. Relative paths in the jobs are resolved against the
// directory of the job file.
func LoadJobFile(path string) (*JobFile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var jf JobFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&jf); err != nil {
		return nil, fmt.Errorf("%w: invalid job file %q: %v", ErrParse, path, err)
	}

	if jf.Workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d in %q", jf.Workers, path)
	}
	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("no jobs in %q", path)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i := range jf.Jobs {
		j := &jf.Jobs[i]
		j.Input = resolve(j.Input)
		j.Output = resolve(j.Output)
		j.Include = resolve(j.Include)
		if err := j.Validate(); err != nil {
			return nil, fmt.Errorf("job %d in %q: %v", i+1, path, err)
		}
	}

	return &jf, nil
}

// RunJobs runs the jobs on up to workers goroutines (the number of CPUs if workers <= 0). Jobs
// that have not started when a job fails, or when ctx is cancelled, are skipped. Returns the first
// error.
func RunJobs(ctx context.Context, jobs []Job, workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log.Printf("Running %d conversions on %d workers", len(jobs), workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := Convert(job); err != nil {
				log.WithFields(log.Fields{
					"job":    i + 1,
					"format": job.Format.String(),
					"input":  job.Input,
				}).Errorf("Conversion failed: %v", err)
				return fmt.Errorf("job %d (%s): %w", i+1, job.Input, err)
			}
			return nil
		})
	}

	return g.Wait()
}
