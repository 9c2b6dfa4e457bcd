package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/cheggaaa/pb"
	"github.com/rubenv/osmbridge/osmbridge"
	"github.com/rubenv/osmbridge/osmbridge/split"
)

type CmdSplit struct {
	global *GlobalOptions

	Ways         string `long:"ways" description:"Ways file, overrides input.ways"`
	Associations string `long:"associations" description:"Associations file, overrides associations.file"`
	DryRun       bool   `long:"dry-run" description:"Plan only, leave the store untouched"`
	Quiet        bool   `short:"q" long:"quiet" description:"Hide the progress bar"`

	dryRun bool
}

func init() {
	_, err := parser.AddCommand("split",
		"Split bridges out of ways",
		"Split every associated way at its bridges and write the configured outputs",
		&CmdSplit{global: &globalOpts})
	if err != nil {
		panic(err)
	}

	_, err = parser.AddCommand("plan",
		"Plan bridge splits",
		"Plan the splits without changing anything and write the configured outputs",
		&CmdSplit{global: &globalOpts, dryRun: true})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdSplit) Execute(args []string) error {
	config, err := cmd.global.LoadConfig()
	if err != nil {
		return err
	}
	if cmd.Ways != "" {
		config.Input.Ways = cmd.Ways
	}
	if cmd.Associations != "" {
		config.Associations.File = cmd.Associations
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	go func() {
		select {
		case <-interrupt:
			log.Printf("[split] Interrupted, finishing started lines")
			cancel()
		case <-ctx.Done():
		}
	}()

	var env *osmbridge.Env
	if cmd.global.DataStore != "" {
		store, err := cmd.global.OpenStore()
		if err != nil {
			return err
		}
		defer store.Close()
		env = osmbridge.NewEnv(config, store)
	} else {
		env, err = osmbridge.LoadEnv(ctx, config)
		if err != nil {
			return fmt.Errorf("Failed to load ways: %s\n", err.Error())
		}
	}

	jobs, err := env.Jobs()
	if err != nil {
		return fmt.Errorf("Failed to read associations: %s\n", err.Error())
	}

	var progress func(split.Outcome)
	var bar *pb.ProgressBar
	if !cmd.Quiet {
		bar = pb.StartNew(len(jobs))
		progress = func(split.Outcome) {
			bar.Increment()
		}
	}

	outcomes, summary, err := env.Split(ctx, jobs, cmd.dryRun || cmd.DryRun, progress)
	if bar != nil {
		bar.Finish()
	}
	if err != nil && err != context.Canceled {
		return fmt.Errorf("Failed to split: %s\n", err.Error())
	}
	log.Printf("[split] %s", summary)

	return env.WriteOutputs(outcomes)
}
