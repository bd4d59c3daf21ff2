// Command migrate converts legacy spectrum text files into library CSVs on
// the calculation grid, optionally pushing them to the spectrum bucket.
//
//	migrate -kind stimuli -format single-line -dark DARK.TXT -out spectra/stimuli BLUE.TXT GREEN.TXT
//	migrate -kind photoreceptors -format columns -log10 -upload rod.txt
//	migrate -format xlsx -sheet "GREEN Multiphoton" -wl-col D -val-col E -out spectra/stimuli lightCrafter_2p_green.xlsx
//	migrate -kind photoreceptors -format mat -var MacaqueRodLog -log10 -out spectra/photoreceptors rod.mat
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/photoiso/internal/config"
	"github.com/RMahshie/photoiso/internal/importer"
	"github.com/RMahshie/photoiso/internal/matfile"
	"github.com/RMahshie/photoiso/internal/spectrumcsv"
	"github.com/RMahshie/photoiso/internal/storage"
	"github.com/RMahshie/photoiso/internal/workbook"
	"github.com/RMahshie/photoiso/pkg/spectral"
)

type parser func([]byte) (spectral.RawSpectrum, error)

// tableOptions locate the spectrum inside workbook and MAT-file inputs.
type tableOptions struct {
	sheet    string
	variable string
	wlCol    int
	valCol   int
	skipRows int
}

func newParser(format string, t tableOptions) (parser, error) {
	switch format {
	case "csv":
		return spectrumcsv.Parse, nil
	case "single-line":
		return spectrumcsv.ParseSingleLine, nil
	case "columns":
		return spectrumcsv.ParseColumns, nil
	case "xlsx":
		opts := workbook.Options{
			Sheet:            t.sheet,
			WavelengthColumn: t.wlCol,
			ValueColumn:      t.valCol,
			SkipRows:         t.skipRows,
		}
		return func(data []byte) (spectral.RawSpectrum, error) {
			return workbook.Read(bytes.NewReader(data), opts)
		}, nil
	case "mat":
		return func(data []byte) (spectral.RawSpectrum, error) {
			return matfile.ReadSpectrum(data, t.variable, t.wlCol, t.valCol)
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

type options struct {
	kind       storage.Kind
	parse      parser
	importOpts importer.Options
	outDir     string
	upload     bool
	inputs     []string
	darkPath   string
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("Invalid arguments")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	grid, err := cfg.Spectra.Grid()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid calculation grid")
	}

	var store storage.SpectrumStore
	if opts.upload {
		store, err = openStore(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open spectrum library")
		}
	}

	if err := run(context.Background(), grid, opts, store); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Int("files", len(opts.inputs)).Msg("Migration complete")
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	kind := fs.String("kind", string(storage.KindStimulus), "library section: stimuli or photoreceptors")
	format := fs.String("format", "csv", "input format: csv, single-line, columns, xlsx or mat")
	dark := fs.String("dark", "", "dark spectrum subtracted from every input of the same length")
	log10 := fs.Bool("log10", false, "input values are log10 sensitivities")
	baseline := fs.String("baseline", string(importer.BaselineNone), "baseline correction: min, noise or none")
	out := fs.String("out", "", "directory to write <name>.csv files into")
	upload := fs.Bool("upload", false, "save into the configured spectrum bucket")
	sheet := fs.String("sheet", "", "xlsx: sheet name (default first sheet)")
	wlCol := fs.String("wl-col", "1", "xlsx, mat: wavelength column, a number from 1 or a letter")
	valCol := fs.String("val-col", "2", "xlsx, mat: value column, a number from 1 or a letter")
	skipRows := fs.Int("skip-rows", 1, "xlsx: leading rows to ignore")
	variable := fs.String("var", "", "mat: variable name (default first matrix with two columns)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Workbook exports carry a detector offset; subtract it unless told otherwise.
	baselineSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "baseline" {
			baselineSet = true
		}
	})
	if *format == "xlsx" && !baselineSet {
		*baseline = string(importer.BaselineMinimum)
	}

	k, err := storage.ParseKind(*kind)
	if err != nil {
		return nil, err
	}
	table := tableOptions{sheet: *sheet, variable: *variable, skipRows: *skipRows}
	if table.wlCol, err = workbook.ParseColumn(*wlCol); err != nil {
		return nil, fmt.Errorf("-wl-col: %w", err)
	}
	if table.valCol, err = workbook.ParseColumn(*valCol); err != nil {
		return nil, fmt.Errorf("-val-col: %w", err)
	}
	if table.skipRows < 0 {
		return nil, fmt.Errorf("-skip-rows: %d is negative", table.skipRows)
	}
	parse, err := newParser(*format, table)
	if err != nil {
		return nil, err
	}
	switch mode := importer.BaselineMode(*baseline); mode {
	case importer.BaselineNone, importer.BaselineMinimum, importer.BaselineNoiseFloor:
	default:
		return nil, fmt.Errorf("unknown baseline mode %q", mode)
	}
	if *out == "" && !*upload {
		return nil, errors.New("nothing to do: set -out, -upload or both")
	}
	if fs.NArg() == 0 {
		return nil, errors.New("no input files")
	}

	opts := &options{
		kind:     k,
		parse:    parse,
		outDir:   *out,
		upload:   *upload,
		inputs:   fs.Args(),
		darkPath: *dark,
		importOpts: importer.Options{
			Baseline:  importer.BaselineMode(*baseline),
			Log10:     *log10,
			Normalize: k == storage.KindStimulus,
		},
	}
	return opts, nil
}

func openStore(cfg *config.Config) (storage.SpectrumStore, error) {
	s3Service, err := storage.NewS3Service(storage.S3Config{
		Bucket:    cfg.AWS.S3Bucket,
		Endpoint:  cfg.AWS.S3Endpoint,
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKeyID,
		SecretKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s3Service.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return storage.NewS3SpectrumStore(s3Service), nil
}

// run converts every input. store may be nil when only writing files.
func run(ctx context.Context, g spectral.Grid, opts *options, store storage.SpectrumStore) error {
	if opts.darkPath != "" {
		dark, err := readSpectrum(opts.darkPath, opts.parse)
		if err != nil {
			return fmt.Errorf("dark spectrum: %w", err)
		}
		opts.importOpts.Dark = dark
		log.Info().Str("file", opts.darkPath).Int("points", len(dark)).Msg("Loaded dark spectrum")
	}

	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return err
		}
	}

	for _, path := range opts.inputs {
		name := spectrumName(path)
		if err := storage.ValidateName(name); err != nil {
			return err
		}

		raw, err := readSpectrum(path, opts.parse)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		result, err := importer.Import(g, raw, opts.importOpts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, w := range result.Warnings {
			log.Warn().Str("file", path).Str("code", string(w.Code)).Msg(w.Message)
		}

		if opts.outDir != "" {
			if err := writeCSV(filepath.Join(opts.outDir, name+".csv"), result.Spectrum, opts.kind); err != nil {
				return err
			}
		}
		if store != nil {
			if err := store.Save(ctx, opts.kind, name, result.Spectrum); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		log.Info().Str("file", path).Str("name", name).Str("kind", string(opts.kind)).Msg("Converted")
	}
	return nil
}

func readSpectrum(path string, parse parser) (spectral.RawSpectrum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func writeCSV(path string, s spectral.GridSpectrum, kind storage.Kind) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := spectrumcsv.Write(f, s, kind.ValueColumn()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// spectrumName is the file name without directory or extension
func spectrumName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
