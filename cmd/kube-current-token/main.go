package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/futuretea/kube-current-token/pkg/kube-current-token/cmd"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
}

func main() {
	command := cmd.NewCurrentToken(cmd.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	})

	err := command.Execute()
	var exitErr *cmd.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		log.Error().Err(err).Msg("Failed to execute command")
	}
	os.Exit(cmd.ExitCode(err))
}
