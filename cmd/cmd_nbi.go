package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/rubenv/osmbridge/osmbridge/nbi"
)

type CmdNBI struct {
	global *GlobalOptions
}

func init() {
	_, err := parser.AddCommand("nbi",
		"Prepare NBI records",
		"Decode NBI coordinates, drop duplicates and unposted culverts",
		&CmdNBI{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdNBI) Usage() string {
	return "nbi.csv bridges.csv"
}

func (cmd CmdNBI) Execute(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("Files not specified, Usage: %s", cmd.Usage())
	}

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	records, err := nbi.Read(in)
	if err != nil {
		return fmt.Errorf("Failed to read records: %s\n", err.Error())
	}

	result := nbi.Process(records)
	for _, r := range result.Invalid {
		log.Printf("[nbi] Skipping %s: invalid coordinate %q %q", r.StructureNumber, r.Lat016, r.Long017)
	}
	for _, id := range result.Exclusions.IDs() {
		log.Printf("[nbi] Excluding %s: shared coordinates", id)
	}
	log.Printf("[nbi] %d records, %d kept, %d excluded, %d unposted culverts",
		len(records), len(result.Chosen), result.Exclusions.Len(), result.Culverts)

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}

	err = nbi.Write(out, result.Chosen)
	if err != nil {
		out.Close()
		return fmt.Errorf("Failed to write %s: %s\n", args[1], err.Error())
	}
	return out.Close()
}
