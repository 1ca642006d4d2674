package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/librarian/internal/auth"
)

// HashPasswordCommand prints a bcrypt hash for AUTH_PASSWORD_HASH.
type HashPasswordCommand struct {
	Password string
	Cost     int

	in  io.Reader
	out io.Writer
}

func NewHashPasswordCommand() *HashPasswordCommand {
	return &HashPasswordCommand{in: os.Stdin, out: os.Stdout}
}

func (cmd *HashPasswordCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)

	fs.StringVar(&cmd.Password, "password", "", "Password to hash (read from stdin when empty)")
	fs.IntVar(&cmd.Cost, "cost", 12, "bcrypt cost factor")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s hash-password [-cost N] < password.txt\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the bcrypt hash to put in AUTH_PASSWORD_HASH.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *HashPasswordCommand) Run() error {
	password := cmd.Password
	if password == "" {
		line, err := bufio.NewReader(cmd.in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(password, cmd.Cost)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.out, hash)
	return nil
}
