package cmd

import "fmt"

type CmdApplyChange struct {
	global *GlobalOptions
}

func init() {
	_, err := parser.AddCommand("apply-change",
		"Apply an osmChange file",
		"Apply an osmChange file to the data store: an OSM replication diff, or the change written by split to commit the split ways and relations",
		&CmdApplyChange{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdApplyChange) Usage() string {
	return "split.osc|diff.osc.gz"
}

func (cmd CmdApplyChange) Execute(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("OSC file not specified, Usage: %s", cmd.Usage())
	}

	store, err := cmd.global.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.ApplyChange(args[0])
	if err != nil {
		return fmt.Errorf("Failed to apply changes: %s\n", err.Error())
	}

	return nil
}
