package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rubenv/osmbridge/osmbridge"
)

type GlobalOptions struct {
	DataStore string `short:"d" long:"datastore" description:"Data store path"`
	Config    string `short:"c" long:"config" description:"Configuration file"`
}

var globalOpts = GlobalOptions{}
var parser = flags.NewParser(&globalOpts, flags.HelpFlag|flags.PassDoubleDash)

func Run() error {
	_, err := parser.Parse()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		parser.WriteHelp(os.Stdout)
		return nil
	}
	return err
}

func (g *GlobalOptions) OpenStore() (*osmbridge.Store, error) {
	if g.DataStore == "" {
		return nil, errors.New("No datastore specified")
	}

	store, err := osmbridge.NewStore(g.DataStore)
	if err != nil {
		return nil, fmt.Errorf("Failed to open store: %s\n", err.Error())
	}
	return store, nil
}

// LoadConfig reads the configuration file, or returns the defaults when
// none was given.
func (g *GlobalOptions) LoadConfig() (*osmbridge.Config, error) {
	if g.Config == "" {
		return osmbridge.NewConfig(), nil
	}

	config, err := osmbridge.ReadConfig(g.Config)
	if err != nil {
		return nil, fmt.Errorf("Failed to read config: %s\n", err.Error())
	}
	return config, nil
}
