// main.go - Main entry point for the IntuitionZ80 machine

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/intuitionamiga/IntuitionZ80/cpu"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nIntuitionZ80 - Z80 and 8080 machine with an in-circuit style monitor.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionZ80")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	var (
		model8080  bool
		trapUndoc  bool
		trapIO     bool
		fill       string
		freq       int
		program    string
		loadAddr   string
		fast       bool
		monitor    bool
		script     string
		romRange   string
		logLevel   string
		cpuProfile string
		quiet      bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&model8080, "8080", false, "Emulate an Intel 8080 instead of a Z80")
	flagSet.BoolVar(&trapUndoc, "u", false, "Trap undocumented op-codes")
	flagSet.BoolVar(&trapIO, "i", false, "Trap accesses to unused I/O ports")
	flagSet.StringVar(&fill, "m", "00", "Memory fill byte in hex, or r for random")
	flagSet.IntVar(&freq, "f", 0, "CPU speed in MHz (0 is unlimited)")
	flagSet.StringVar(&program, "x", "", "Program to load (binary, Mostek or Intel HEX)")
	flagSet.StringVar(&loadAddr, "load-addr", "0x0000", "Load address for raw binaries (hex or decimal)")
	flagSet.BoolVar(&fast, "fast", false, "Run block instructions in one step")
	flagSet.BoolVar(&monitor, "monitor", false, "Start the machine monitor instead of running")
	flagSet.StringVar(&script, "script", "", "Run a monitor script (.lua for Lua) before the monitor")
	flagSet.StringVar(&romRange, "rom", "", "Write-protect a memory range, e.g. f000-ffff")
	flagSet.StringVar(&logLevel, "log-level", "warning", "Log level (trace, debug, info, warning, error)")
	flagSet.StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to file")
	flagSet.BoolVar(&quiet, "q", false, "Do not print the banner")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./intuition_z80 [-8080] [-u] [-i] [-m fill] [-f mhz] [-fast] [-monitor] [-script file] [-x] filename")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if program == "" {
		program = flagSet.Arg(0)
	}
	if !quiet {
		boilerPlate()
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := MachineConfig{
		CPU:           cpu.DefaultConfig(),
		StrictIO:      trapIO,
		HandleSignals: true,
		Logger:        log,
		Host: func(console *TerminalIO, onBreak func()) ConsoleHost {
			return NewTerminalHost(console, onBreak)
		},
	}
	if model8080 {
		cfg.CPU.Model = cpu.Model8080
	}
	cfg.CPU.Undocumented = !trapUndoc
	cfg.CPU.FrequencyMHz = freq
	if fast {
		cfg.CPU.Exec = cpu.ExecFast
	}
	if cfg.Fill, err = parseFillFlag(fill); err != nil {
		fmt.Printf("Error: invalid fill byte %q: %v\n", fill, err)
		os.Exit(1)
	}
	if cfg.LoadAddr, err = parseUint16Flag(loadAddr); err != nil {
		fmt.Printf("Error: invalid load address %q: %v\n", loadAddr, err)
		os.Exit(1)
	}
	if romRange != "" {
		if cfg.ROMStart, cfg.ROMEnd, err = parseRangeFlag(romRange); err != nil {
			fmt.Printf("Error: invalid ROM range %q: %v\n", romRange, err)
			os.Exit(1)
		}
		cfg.ROM = true
	}

	machine := NewMachine(cfg)
	machine.PowerOn()
	machine.Console().SetCharOutputCallback(func(b byte) {
		os.Stdout.Write([]byte{b})
	})

	if program != "" {
		if _, err := machine.LoadProgram(program); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	if monitor || script != "" {
		mon := NewMachineMonitor(machine, os.Stdout)
		mon.SetColor(term.IsTerminal(int(os.Stdout.Fd())))
		if script != "" {
			quit, err := mon.RunScript(script)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			if quit || !monitor {
				return
			}
		}
		mon.Run(os.Stdin)
		return
	}

	err = machine.Run(context.Background())
	machine.ReportError(os.Stdout, err)
	machine.ReportStats(os.Stdout)
}

func parseUint16Flag(value string) (uint16, error) {
	parsed, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, err
	}
	if parsed > 0xFFFF {
		return 0, fmt.Errorf("value out of range: 0x%X", parsed)
	}
	return uint16(parsed), nil
}

func parseFillFlag(value string) (int, error) {
	if strings.EqualFold(value, "r") {
		return FILL_RANDOM, nil
	}
	parsed, err := strconv.ParseUint(value, 16, 8)
	if err != nil {
		return 0, err
	}
	return int(parsed), nil
}

// parseRangeFlag parses start-end with both ends in hex.
func parseRangeFlag(value string) (uint16, uint16, error) {
	lo, hi, ok := strings.Cut(value, "-")
	if !ok {
		return 0, 0, fmt.Errorf("expected start-end")
	}
	start, err := strconv.ParseUint(lo, 16, 16)
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.ParseUint(hi, 16, 16)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("end 0x%04X before start 0x%04X", end, start)
	}
	return uint16(start), uint16(end), nil
}
