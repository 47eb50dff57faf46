package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/bep/debounce"
	"github.com/lanefall/mdfc/compiler"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <file.mdfs>",
	Short: "Recompiles a .mdfs chart on every save",
	Long:  `Polls a chart file for modifications and recompiles it on every change, printing diagnostics as they occur, debounced against rapid saves.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWatch(args[0])
	},
}

func compileAndReport(path string) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		fmt.Println("watch: could not read " + path + ": " + err.Error())
		return
	}
	c, d := compiler.Compile(src, compiler.Options{})
	if d != nil {
		fmt.Println(d.Error())
		return
	}
	fmt.Printf("ok: %d notes, %d us\n", len(c.Notes), c.Meta.TotalDurationUs)
}

func runWatch(path string) {
	debounced := debounce.New(200 * time.Millisecond)
	compileAndReport(path)

	var lastMod time.Time
	if stat, err := os.Stat(path); err == nil {
		lastMod = stat.ModTime()
	}

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		if stat.ModTime().After(lastMod) {
			lastMod = stat.ModTime()
			debounced(func() { compileAndReport(path) })
		}
	}
}
