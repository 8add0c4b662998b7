package editor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bethropolis/tempo/internal/config"
	"github.com/bethropolis/tempo/internal/logger"
	"github.com/bethropolis/tempo/internal/plugin"
)

// RegisterCommand makes fn available to ExecuteCommand under name.
func (s *Session) RegisterCommand(name string, fn plugin.CommandFunc) error {
	if name == "" || strings.ContainsAny(name, " \t") {
		return fmt.Errorf("invalid command name '%s'", name)
	}
	if fn == nil {
		return fmt.Errorf("command '%s' has no function", name)
	}
	if _, exists := s.commands[name]; exists {
		return fmt.Errorf("command '%s' already registered", name)
	}
	s.commands[name] = fn
	logger.DebugTagf("command", "Registered command '%s'", name)
	return nil
}

// ExecuteCommand runs a command line such as "resnap 4,8" or "move 250 -1".
func (s *Session) ExecuteCommand(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]
	fn, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	logger.DebugTagf("command", "Executing '%s' %v", name, args)
	if err := fn(args); err != nil {
		s.statusBar.SetTemporaryMessage("%s: %v", name, err)
		return err
	}
	return nil
}

// Commands lists registered command names alphabetically.
func (s *Session) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registerBuiltinCommands registers the editing commands every session has.
func registerBuiltinCommands(s *Session) {
	builtins := map[string]plugin.CommandFunc{
		"resnap": func(args []string) error {
			snaps, err := snapArgs(args)
			if err != nil {
				return err
			}
			if len(s.selection) == 0 {
				_, err = s.ResnapAll(snaps)
			} else {
				_, err = s.ResnapSelection(snaps)
			}
			return err
		},
		"snap": func(args []string) error {
			if len(args) == 0 {
				s.SetStatusMessage("Snap: %s", formatSnaps(s.snaps))
				return nil
			}
			snaps, err := snapArgs(args)
			if err != nil {
				return err
			}
			return s.SetSnaps(snaps)
		},
		"undo": func([]string) error {
			s.Undo()
			return nil
		},
		"redo": func([]string) error {
			s.Redo()
			return nil
		},
		"w": func(args []string) error {
			if len(args) > 0 {
				return s.SaveAs(args[0])
			}
			return s.Save()
		},
		"flip": func([]string) error {
			return s.FlipSelection()
		},
		"move": func(args []string) error {
			if len(args) == 0 || len(args) > 2 {
				return fmt.Errorf("usage: move <ms> [lanes]")
			}
			dt, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid time offset '%s'", args[0])
			}
			dl := 0
			if len(args) == 2 {
				if dl, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid lane offset '%s'", args[1])
				}
			}
			return s.MoveSelection(dt, dl)
		},
		"delete": func([]string) error {
			_, err := s.DeleteSelection()
			return err
		},
		"selectall": func([]string) error {
			s.SelectAll()
			return nil
		},
		"layer": func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: layer <index>")
			}
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid layer '%s'", args[0])
			}
			return s.SelectLayer(index)
		},
		"newlayer": func(args []string) error {
			_, err := s.CreateLayer(strings.Join(args, " "), 0)
			return err
		},
	}
	// The "save" alias shares the "w" implementation.
	builtins["save"] = builtins["w"]

	for name, fn := range builtins {
		if err := s.RegisterCommand(name, fn); err != nil {
			logger.Warnf("Failed to register ':%s' command: %v", name, err)
		}
	}
}

// snapArgs parses divisors given as "4,8" or "4 8" or "1/4".
func snapArgs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, nil
	}
	snaps, err := config.ParseSnapDivisors(strings.Join(args, ","))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnap, err)
	}
	return snaps, nil
}

func formatSnaps(snaps []int) string {
	parts := make([]string, len(snaps))
	for i, d := range snaps {
		parts[i] = "1/" + strconv.Itoa(d)
	}
	return strings.Join(parts, " ")
}
