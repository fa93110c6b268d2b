// Command adduser provisions a user account.
//
//	adduser [--admin] EMAIL
//
// The password is prompted for twice when stdin is a terminal and read as a
// single line otherwise.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/iliyamo/robot-management/internal/config"
	"github.com/iliyamo/robot-management/internal/database"
	"github.com/iliyamo/robot-management/internal/repository"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	admin := flags.Bool("admin", false, "new user has administrator role")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: adduser [--admin] EMAIL")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}
	email := repository.NormalizeEmail(flags.Arg(0))
	if !strings.Contains(email, "@") {
		fmt.Fprintf(stderr, "Error: %q is not an email address\n", flags.Arg(0))
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	password, err := readPassword(stdin, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	id, err := repository.NewUserRepo(db).Create(ctx, email, password, *admin, cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		fmt.Fprintf(stderr, "Error: %s is already registered\n", email)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	kind := "user"
	if *admin {
		kind = "admin user"
	}
	fmt.Fprintf(stdout, "Successfully added new %s: id=%d email=%s\n", kind, id, email)
	return 0
}

// readPassword prompts twice with echo disabled on a terminal and reads one
// line otherwise.
func readPassword(stdin *os.File, stderr io.Writer) (string, error) {
	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return readPasswordLine(stdin)
	}

	fmt.Fprint(stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprint(stderr, "Repeat for confirmation: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(stderr)
	if err != nil {
		return "", fmt.Errorf("reading password confirmation: %w", err)
	}
	if !bytes.Equal(first, second) {
		return "", errors.New("the two entered values do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password is empty")
	}
	return string(first), nil
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is empty")
	}
	return line, nil
}
