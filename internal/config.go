package internal

import "fmt"

// Config is the environment shared by the inspection tools. The relay
// binary carries its own config in cmd; only the storage coordinates
// need to match.
type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	DebugPort      int    `env:"DEBUG_PORT,default=8090"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
