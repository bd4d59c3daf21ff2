package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/photoiso/internal/spectrumcsv"
	"github.com/RMahshie/photoiso/pkg/spectral"
)

// Kind is a spectrum library section.
type Kind string

const (
	KindStimulus      Kind = "stimuli"
	KindPhotoreceptor Kind = "photoreceptors"
)

// ParseKind accepts the two library section names.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStimulus, KindPhotoreceptor:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invalid spectrum kind %q", s)
}

// ValueColumn is the CSV header for the kind's values.
func (k Kind) ValueColumn() string {
	if k == KindPhotoreceptor {
		return spectrumcsv.SensitivityColumn
	}
	return spectrumcsv.StimulusColumn
}

var (
	ErrSpectrumNotFound = errors.New("spectrum not found")
	ErrInvalidName      = errors.New("invalid spectrum name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidateName rejects names that would not make a clean object key.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) || strings.Trim(name, ".") == "" {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

const spectraPrefix = "spectra"

// SpectrumStore is the named spectrum library.
type SpectrumStore interface {
	List(ctx context.Context, kind Kind) ([]string, error)
	Load(ctx context.Context, kind Kind, name string) (spectral.RawSpectrum, error)
	Save(ctx context.Context, kind Kind, name string, s spectral.GridSpectrum) error
	DownloadURL(ctx context.Context, kind Kind, name string) (string, error)
}

type s3SpectrumStore struct {
	s3 S3Service
}

// NewS3SpectrumStore keeps spectra as CSV objects under spectra/<kind>/.
func NewS3SpectrumStore(s3Service S3Service) SpectrumStore {
	return &s3SpectrumStore{s3: s3Service}
}

func spectrumKey(kind Kind, name string) string {
	return path.Join(spectraPrefix, string(kind), name+".csv")
}

// List returns the sorted names in a section
func (s *s3SpectrumStore) List(ctx context.Context, kind Kind) ([]string, error) {
	prefix := path.Join(spectraPrefix, string(kind)) + "/"
	keys, err := s.s3.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		names = append(names, name[:len(name)-len(".csv")])
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a stored spectrum
func (s *s3SpectrumStore) Load(ctx context.Context, kind Kind, name string) (spectral.RawSpectrum, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := s.s3.DownloadFile(ctx, spectrumKey(kind, name))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrSpectrumNotFound, kind, name)
		}
		return nil, err
	}

	raw, err := spectrumcsv.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("spectrum %s/%s: %w", kind, name, err)
	}
	return raw, nil
}

// Save writes s as CSV, replacing any spectrum with the same name
func (s *s3SpectrumStore) Save(ctx context.Context, kind Kind, name string, spectrum spectral.GridSpectrum) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	data, err := spectrumcsv.Encode(spectrum, kind.ValueColumn())
	if err != nil {
		return fmt.Errorf("failed to encode spectrum: %w", err)
	}

	key := spectrumKey(kind, name)
	if err := s.s3.UploadFile(ctx, key, data, "text/csv"); err != nil {
		return err
	}

	log.Info().Str("key", key).Int("points", spectrum.Len()).Msg("Spectrum saved")
	return nil
}

// DownloadURL returns a pre-signed link to the stored CSV
func (s *s3SpectrumStore) DownloadURL(ctx context.Context, kind Kind, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return s.s3.GenerateDownloadURL(ctx, spectrumKey(kind, name))
}
