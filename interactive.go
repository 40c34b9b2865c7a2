package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mrdg/dubsiren/audio"
)

// interactive starts a small get/set/trigger/release console, grounded on
// the teacher's repl.go (readline.New, Readline/io.EOF loop) with the
// dub-language command dispatch replaced by direct parameter pokes: there
// is no pattern language left to parse once the step sequencer is gone,
// but the same readline-driven console is still useful for exercising the
// engine's parameters without a wired control surface.
func interactive(engine *audio.Engine) error {
	rl, err := readline.New("dubsiren> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("interactive console: get <param> | set <param> <value> | trigger | release | quit")

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := evalCommand(engine, fields); err == io.EOF {
			return nil
		} else if err != nil {
			fmt.Println(err)
		}
	}
}

func evalCommand(engine *audio.Engine, fields []string) error {
	switch fields[0] {
	case "trigger":
		engine.Trigger()
		return nil
	case "release":
		engine.Release()
		return nil
	case "quit", "exit":
		return io.EOF
	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("get: expected 1 argument, got %d", len(fields)-1)
		}
		v, err := engine.Get(fields[1])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "set":
		if len(fields) != 3 {
			return fmt.Errorf("set: expected 2 arguments, got %d", len(fields)-1)
		}
		v, err := parseValue(fields[2])
		if err != nil {
			return err
		}
		return engine.Set(fields[1], v)
	default:
		return fmt.Errorf("unknown command: %s", fields[0])
	}
}

// parseValue parses every console-settable parameter as a float64: the
// registry only holds float- and int-valued properties (audio/props.go),
// and setInt accepts a float64 the same way setFloat64 does.
func parseValue(s string) (interface{}, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return s, nil
}
