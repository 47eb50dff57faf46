package cmd

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/lanefall/mdfc/compiler"
	"github.com/lanefall/mdfc/diag"
	"github.com/lanefall/mdfc/manifest"
	"github.com/spf13/cobra"
)

var compileJSON bool
var compileManifestPath string

func init() {
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "dump the compiled chart as indented JSON")
	compileCmd.Flags().StringVar(&compileManifestPath, "manifest", "", "override the @sound_manifest path")
	rootCmd.AddCommand(compileCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile <file.mdfs>",
	Short: "Compiles a .mdfs chart and prints a summary",
	Long:  `Runs the compiler core over a .mdfs chart and prints a human summary, or the full chart as JSON with --json.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCompile(args[0])
	},
}

func runCompile(path string) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		panic("cmd: could not read chart file: " + err.Error())
	}

	opts := compiler.Options{}
	if compileManifestPath != "" {
		opts.Loader = manifestOverrideLoader{path: compileManifestPath}
	}

	c, d := compiler.Compile(src, opts)
	if d != nil {
		fmt.Println(d.Error())
		if d.Help != "" {
			fmt.Println("help: " + d.Help)
		}
		return
	}

	if compileJSON {
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			panic("cmd: could not marshal chart: " + err.Error())
		}
		fmt.Println(string(b))
		return
	}

	fmt.Printf("notes: %d\n", len(c.Notes))
	fmt.Printf("bgm_events: %d\n", len(c.BgmEvents))
	fmt.Printf("total_duration_us: %d\n", c.Meta.TotalDurationUs)
}

// manifestOverrideLoader ignores the path a chart's @sound_manifest
// directive names and always loads from a caller-supplied path instead,
// backing the CLI's --manifest flag.
type manifestOverrideLoader struct {
	path string
}

func (m manifestOverrideLoader) Load(_ string) (map[string]string, *diag.Diagnostic) {
	return manifest.FileLoader{}.Load(m.path)
}
