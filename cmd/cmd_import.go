package cmd

import (
	"context"
	"fmt"

	"github.com/rubenv/osmbridge/osmbridge"
)

type CmdImport struct {
	global *GlobalOptions

	AllWays bool `long:"all" description:"Import every way instead of highways only"`
}

func init() {
	_, err := parser.AddCommand("import",
		"Import OSM files",
		"Imports PBF or OSM XML files into the data store",
		&CmdImport{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdImport) Usage() string {
	return "data.osm.pbf"
}

func (cmd CmdImport) Execute(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("Input file not specified, Usage: %s", cmd.Usage())
	}

	config, err := cmd.global.LoadConfig()
	if err != nil {
		return err
	}

	store, err := cmd.global.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var filter osmbridge.LineFilter
	if !cmd.AllWays {
		filter = config.Filter()
	}

	err = store.Import(context.Background(), args[0], filter)
	if err != nil {
		return fmt.Errorf("Failed to import: %s\n", err.Error())
	}

	return nil
}
