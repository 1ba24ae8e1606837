package cococonv

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format is a source annotation format.
type Format int

// The known source formats.
const (
	Unknown    Format = iota // If an unknown format is specified.
	HumanParts               // COCO Human Parts, hierarchical part boxes.
	CrowdHuman               // CrowdHuman .odgt, one JSON record per line.
)

// FormatFrom returns the Format named s, or Unknown.
func FormatFrom(s string) Format {
	switch s {
	case "humanparts":
		return HumanParts
	case "crowdhuman":
		return CrowdHuman
	}
	return Unknown
}

func (f Format) String() string {
	switch f {
	case HumanParts:
		return "humanparts"
	case CrowdHuman:
		return "crowdhuman"
	}
	return "unknown"
}

// UnmarshalYAML reads a Format from its name.
func (f *Format) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if *f = FormatFrom(s); *f == Unknown {
		return fmt.Errorf("line %d: unsupported format %q", value.Line, s)
	}
	return nil
}

// Job is a single conversion from Input to Output.
//
// For HumanParts, Include optionally names a COCO annotation file providing image metadata. For
// CrowdHuman, Include is the required image directory.
type Job struct {
	Format  Format `yaml:"format"`
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Include string `yaml:"include"`
}

// Validate checks that the job names a format and all the paths it needs.
func (j Job) Validate() error {
	switch {
	case j.Format == Unknown:
		return fmt.Errorf("unsupported input format")
	case j.Input == "" || j.Output == "":
		return fmt.Errorf("missing input or output path")
	case j.Input == j.Output:
		return fmt.Errorf("the input and output paths cannot be identical")
	case j.Format == CrowdHuman && j.Include == "":
		return fmt.Errorf("missing image directory for format %s", j.Format)
	}
	return nil
}

// Convert runs the conversion described by job.
func Convert(job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	switch job.Format {
	case HumanParts:
		return ConvertHumanParts(job.Input, job.Output, job.Include)
	case CrowdHuman:
		return ConvertCrowdHuman(job.Input, job.Output, job.Include)
	}
	return fmt.Errorf("unsupported input format")
}
