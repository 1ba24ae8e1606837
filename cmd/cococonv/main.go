// Converts COCO Human Parts and CrowdHuman annotations to the COCO annotation format.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sensorable/cococonv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// errFlags marks flag syntax errors, which fs.Parse has already reported along with the usage.
var errFlags = errors.New("invalid flags")

// options are the parsed command-line arguments.
type options struct {
	job          cococonv.Job // The single conversion, unless jobFilePath is set.
	jobFilePath  string       // The YAML batch job file.
	numWorkers   int          // The number of concurrent batch conversions.
	logFilePath  string       // An optional file that receives a copy of the log.
	verboseLevel bool         // Log debug messages.
}

// newFlagSet returns the command-line flags, bound to opts.
func newFlagSet(name string, opts *options) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		_, _ = fmt.Fprintf(out, "Usage of %s:\n", name)
		_, _ = fmt.Fprintln(out, "  humanparts:\t-from humanparts [-include <coco.json>] <input> <output>")
		_, _ = fmt.Fprintln(out, "  crowdhuman:\t-from crowdhuman -include <image dir> <input> <output>")
		_, _ = fmt.Fprintln(out, "  batch:\t-batch <jobs.yaml> [-workers n]")
		_, _ = fmt.Fprintln(out)
		fs.PrintDefaults()
	}

	from := fs.String("from", "", "The source `format` {humanparts, crowdhuman}")
	fs.StringVar(&opts.job.Include, "include", opts.job.Include,
		"The `path` to the COCO metadata file (humanparts, optional) or the image directory"+
			" (crowdhuman, required)")
	fs.StringVar(&opts.jobFilePath, "batch", opts.jobFilePath,
		"The `path` to a YAML file listing conversions to run in parallel")
	fs.IntVar(&opts.numWorkers, "workers", 0,
		"The number of concurrent batch conversions; overrides the job file when > 0")
	fs.StringVar(&opts.logFilePath, "log-file", opts.logFilePath,
		"The `path` to a log file that is written in addition to stderr")
	fs.BoolVar(&opts.verboseLevel, "v", opts.verboseLevel, "Log debug messages")

	return fs, from
}

// parseArgs parses and validates the command-line arguments args, without the program name.
func parseArgs(fs *flag.FlagSet, from *string, opts *options, args []string) error {
	positional, err := parseInterspersed(fs, args)
	if err == flag.ErrHelp {
		return err
	} else if err != nil {
		return fmt.Errorf("%w: %v", errFlags, err)
	}

	if opts.jobFilePath != "" {
		if *from != "" || len(positional) > 0 {
			return errors.New("argument -batch cannot be combined with -from or positional paths")
		}
		if opts.numWorkers < 0 {
			return errors.New("argument -workers must not be negative")
		}
		opts.jobFilePath = filepath.Clean(opts.jobFilePath)
		return nil
	}

	if isFlagSet(fs, "workers") {
		return errors.New("argument -workers requires -batch")
	}
	if len(positional) != 2 {
		return errors.New("expected an input and an output path")
	}
	opts.job.Format = cococonv.FormatFrom(*from)
	opts.job.Input = filepath.Clean(positional[0])
	opts.job.Output = filepath.Clean(positional[1])
	if opts.job.Include != "" {
		opts.job.Include = filepath.Clean(opts.job.Include)
	}
	return opts.job.Validate()
}

// parseInterspersed parses the flags in args and returns the positional arguments, which may
// appear before, between or after the flags.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// isFlagSet reports whether the flag name was given on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// setupLogging configures the standard logrus logger.
func setupLogging(verbose bool, logFile string) {
	log.SetFormatter(&formatter.Formatter{
		NoColors:        logFile != "",
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
	})

	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	writers := []io.Writer{os.Stderr}
	if logFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   logFile,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	log.SetOutput(io.MultiWriter(writers...))
}

func main() {
	var opts options
	fs, from := newFlagSet(filepath.Base(os.Args[0]), &opts)
	if err := parseArgs(fs, from, &opts, os.Args[1:]); err != nil {
		switch {
		case err == flag.ErrHelp:
			os.Exit(0)
		case errors.Is(err, errFlags):
			os.Exit(2)
		}
		log.Print(err)
		fs.Usage()
		os.Exit(1)
	}

	setupLogging(opts.verboseLevel, opts.logFilePath)

	if opts.jobFilePath == "" {
		log.Debugf("Converting %s from %q to %q", opts.job.Format, opts.job.Input, opts.job.Output)
		if err := cococonv.Convert(opts.job); err != nil {
			log.Fatal("Conversion failed: ", err)
		}
		return
	}

	jobFile, err := cococonv.LoadJobFile(opts.jobFilePath)
	if err != nil {
		log.Fatal("Failed to load the job file: ", err)
	}
	workers := jobFile.Workers
	if opts.numWorkers > 0 {
		workers = opts.numWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cococonv.RunJobs(ctx, jobFile.Jobs, workers); err != nil {
		log.Fatal("Batch conversion failed: ", err)
	}
	log.Print("Total number of conversions: ", len(jobFile.Jobs))
}
