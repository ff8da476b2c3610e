// Command arenagen writes the arena a host would build for a seed, or
// inspects a map config file.
//
//	arenagen -seed 42 -out arena.yaml
//	arenagen -inspect arena.yaml
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/model"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "arenagen:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("arenagen", flag.ContinueOnError)
	seed := fs.Int64("seed", 1, "arena seed")
	out := fs.String("out", "", "output file, .yaml/.yml or .json; empty prints JSON")
	inspect := fs.String("inspect", "", "map config file to inspect")
	configPath := fs.String("config", "", "config file for the arena section")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts := arena.OptionsFromConfig(cfg.Arena)

	if *inspect != "" {
		return inspectFile(*inspect, opts, stdout)
	}

	doc := generate(*seed, opts)
	if *out == "" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	if err := arena.SaveMapConfig(*out, doc); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s: seed %d, %d obstacles, %d weapon boxes\n",
		*out, doc.Seed, len(doc.Obstacles), len(doc.WeaponBoxes))
	return nil
}

func generate(seed int64, opts arena.Options) *arena.MapConfig {
	gen := arena.NewGenerator(opts, nil)
	gen.GenerateStatic(seed)
	gen.GenerateDynamic(seed)
	return gen.ExportMapConfig()
}

func inspectFile(path string, opts arena.Options, stdout io.Writer) error {
	doc, err := arena.LoadMapConfig(path)
	if err != nil {
		return err
	}

	gen := arena.NewGenerator(opts, nil)
	if err := gen.GenerateFromConfig(doc); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "seed:         %d\n", doc.Seed)
	fmt.Fprintf(stdout, "arena size:   %g\n", doc.ArenaSize)
	for _, team := range model.Teams {
		fmt.Fprintf(stdout, "spawns %s:     %d\n", team, len(doc.SpawnPoints[team]))
	}
	fmt.Fprintf(stdout, "obstacles:    %d\n", len(doc.Obstacles))
	fmt.Fprintf(stdout, "weapon slots: %d\n", len(doc.WeaponSpawns))
	fmt.Fprintf(stdout, "weapon boxes: %d\n", len(doc.WeaponBoxes))
	fmt.Fprintf(stdout, "entities:     %d\n", len(gen.Entities()))
	fmt.Fprintf(stdout, "matches seed: %t\n", generate(doc.Seed, opts).Equal(doc))
	return nil
}
