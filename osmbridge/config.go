package osmbridge

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/rubenv/osmbridge/osmbridge/association"
	"github.com/rubenv/osmbridge/osmbridge/geodesy"
	"github.com/rubenv/osmbridge/osmbridge/split"
	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	Input        InputConfig       `yaml:"input"`
	Associations AssociationConfig `yaml:"associations"`
	Split        SplitConfig       `yaml:"split"`
	Output       OutputConfig      `yaml:"output"`
}

type InputConfig struct {
	// .osm, .pbf or .geojson file with the ways to split. Ignored when
	// working on a store.
	Ways string `yaml:"ways"`

	// Highway classes to load, DefaultHighways when unset. Set
	// all_highways to load every way.
	Highways    []string `yaml:"highways"`
	AllHighways bool     `yaml:"all_highways"`
}

type AssociationConfig struct {
	File    string              `yaml:"file"`
	Columns association.Columns `yaml:"columns"`

	// Bridges without a line are attached to the nearest line within this
	// many meters. Zero disables.
	MaxDistance float64 `yaml:"max_distance"`
}

type SplitConfig struct {
	// Segment selection metric, "planar" or "local".
	Metric        string  `yaml:"metric"`
	SnapTolerance float64 `yaml:"snap_tolerance"`
	Workers       int     `yaml:"workers"`
}

type OutputConfig struct {
	Change    string `yaml:"change"`
	GeoJSON   string `yaml:"geojson"`
	SplitInfo string `yaml:"splitinfo"`
	Report    string `yaml:"report"`
}

func NewConfig() *Config {
	return &Config{
		Input: InputConfig{
			Highways: DefaultHighways,
		},
		Associations: AssociationConfig{
			Columns: association.DefaultColumns(),
		},
		Split: SplitConfig{
			Metric:        geodesy.Planar.String(),
			SnapTolerance: split.DefaultSnapTolerance,
		},
	}
}

func ReadConfig(configPath string) (*Config, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseConfig(f)
}

func ParseConfig(in io.Reader) (*Config, error) {
	data, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, err
	}

	config := NewConfig()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	_, err := geodesy.ParseMetric(c.Split.Metric)
	if err != nil {
		return err
	}
	if c.Split.SnapTolerance < 0 {
		return errors.New("split.snap_tolerance must not be negative")
	}
	if c.Split.Workers < 0 {
		return errors.New("split.workers must not be negative")
	}
	if c.Associations.MaxDistance < 0 {
		return errors.New("associations.max_distance must not be negative")
	}
	return nil
}

// Metric returns the configured segment metric.
func (c *Config) Metric() geodesy.Metric {
	m, _ := geodesy.ParseMetric(c.Split.Metric)
	return m
}

// Filter returns the way filter for loading.
func (c *Config) Filter() LineFilter {
	if c.Input.AllHighways {
		return HighwayFilter(nil)
	}
	return HighwayFilter(c.Input.Highways)
}
