package cmd

import (
	"fmt"
	"strconv"

	"github.com/kr/pretty"
)

type CmdGet struct {
	global *GlobalOptions
}

func init() {
	_, err := parser.AddCommand("get",
		"Get items",
		"Get items from datastore",
		&CmdGet{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdGet) Usage() string {
	return "[node|way|relation|line|groups] id"
}

func (cmd CmdGet) Execute(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("Options missing, Usage: %s", cmd.Usage())
	}

	store, err := cmd.global.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return err
	}

	switch args[0] {
	case "node":
		node, err := store.GetNode(id)
		if err != nil {
			return fmt.Errorf("Failed to get node: %s\n", err.Error())
		}

		fmt.Printf("%# v\n", pretty.Formatter(node))
	case "way":
		way, err := store.GetWay(id)
		if err != nil {
			return fmt.Errorf("Failed to get way: %s\n", err.Error())
		}

		fmt.Printf("%# v\n", pretty.Formatter(way))
	case "relation":
		relation, err := store.GetRelation(id)
		if err != nil {
			return fmt.Errorf("Failed to get relation: %s\n", err.Error())
		}

		fmt.Printf("%# v\n", pretty.Formatter(relation))
	case "line":
		line, err := store.Line(id)
		if err != nil {
			return fmt.Errorf("Failed to get line: %s\n", err.Error())
		}

		fmt.Printf("%# v\n", pretty.Formatter(line))
	case "groups":
		groups, err := store.GroupsReferencing(id)
		if err != nil {
			return fmt.Errorf("Failed to get groups: %s\n", err.Error())
		}

		fmt.Printf("%# v\n", pretty.Formatter(groups))
	default:
		return fmt.Errorf("Unknown type %s, Usage: %s", args[0], cmd.Usage())
	}

	return nil
}
