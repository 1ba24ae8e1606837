package cococonv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatFrom(t *testing.T) {
	for _, f := range []Format{HumanParts, CrowdHuman} {
		require.Equal(t, f, FormatFrom(f.String()))
	}
	require.Equal(t, Unknown, FormatFrom("kitti"))
}

func TestJobValidate(t *testing.T) {
	require.NoError(t, Job{Format: HumanParts, Input: "a.json", Output: "b.json"}.Validate())
	require.NoError(t, Job{Format: CrowdHuman, Input: "a.odgt", Output: "b.json", Include: "img"}.Validate())

	require.Error(t, Job{Input: "a.json", Output: "b.json"}.Validate())
	require.Error(t, Job{Format: HumanParts, Input: "a.json"}.Validate())
	require.Error(t, Job{Format: HumanParts, Input: "a.json", Output: "a.json"}.Validate())
	require.Error(t, Job{Format: CrowdHuman, Input: "a.odgt", Output: "b.json"}.Validate())
}

func TestLoadJobFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "jobs.yaml", `
workers: 2
jobs:
  - format: humanparts
    input: train.json
    output: out/train_coco.json
    include: /data/instances_train2017.json
  - format: crowdhuman
    input: annotation_train.odgt
    output: crowdhuman_train.json
    include: Images
`)

	jf, err := LoadJobFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, jf.Workers)
	require.Equal(t, []Job{
		{
			Format:  HumanParts,
			Input:   filepath.Join(dir, "train.json"),
			Output:  filepath.Join(dir, "out", "train_coco.json"),
			Include: "/data/instances_train2017.json",
		},
		{
			Format:  CrowdHuman,
			Input:   filepath.Join(dir, "annotation_train.odgt"),
			Output:  filepath.Join(dir, "crowdhuman_train.json"),
			Include: filepath.Join(dir, "Images"),
		},
	}, jf.Jobs)
}

func TestLoadJobFileInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadJobFile(writeFile(t, dir, "unknown.yaml",
		"jobs:\n  - format: humanparts\n    input: a\n    output: b\n    labels: c\n"))
	require.ErrorIs(t, err, ErrParse)

	_, err = LoadJobFile(writeFile(t, dir, "format.yaml",
		"jobs:\n  - format: kitti\n    input: a\n    output: b\n"))
	require.ErrorIs(t, err, ErrParse)

	_, err = LoadJobFile(writeFile(t, dir, "images.yaml",
		"jobs:\n  - format: crowdhuman\n    input: a\n    output: b\n"))
	require.Error(t, err)

	_, err = LoadJobFile(writeFile(t, dir, "empty.yaml", "workers: 1\n"))
	require.Error(t, err)

	_, err = LoadJobFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRunJobs(t *testing.T) {
	dir := t.TempDir()
	var jobs []Job
	for _, name := range []string{"a", "b", "c"} {
		jobs = append(jobs, Job{
			Format: HumanParts,
			Input:  writeFile(t, dir, name+".json", humanPartsInput),
			Output: filepath.Join(dir, name+"_coco.json"),
		})
	}

	require.NoError(t, RunJobs(context.Background(), jobs, 2))
	for _, job := range jobs {
		_, err := os.Stat(job.Output)
		require.NoError(t, err)
	}
}

func TestRunJobsFailure(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{
		{
			Format: HumanParts,
			Input:  filepath.Join(dir, "missing.json"),
			Output: filepath.Join(dir, "missing_coco.json"),
		},
	}

	err := RunJobs(context.Background(), jobs, 0)
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "job 1")
}
