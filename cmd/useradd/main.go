// Command useradd creates an account from the terminal. It reads the same
// configuration as the server and prompts for the password twice.
//
//	useradd -u alice [-driver sqlite -d file:site.db]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/flagx"
	"github.com/dmitrijs2005/basicsite/internal/server"
	"github.com/dmitrijs2005/basicsite/internal/server/config"
	"github.com/dmitrijs2005/basicsite/internal/server/services"
	"golang.org/x/term"
)

func main() {
	if err := run(context.Background(), os.Stdin, os.Stderr); err != nil {
		log.Fatalf("useradd: %v", err)
	}
}

func run(ctx context.Context, in *os.File, out io.Writer) error {
	var userName string
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.StringVar(&userName, "u", "", "username of the new account")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-u"})); err != nil {
		return err
	}

	cfg := config.LoadConfig()

	logger, err := server.NewLogger(cfg)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	if userName == "" {
		fmt.Fprint(out, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		userName = strings.TrimSpace(line)
	}

	pw, err := readPassword(in, reader, out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(in, reader, out, "Repeat password: ")
	if err != nil {
		return err
	}
	if pw != confirm {
		return errors.New("passwords do not match")
	}

	db, rm, err := server.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher := server.NewHasher(cfg)
	ss := services.NewSessionService(db, rm, hasher, logger)
	us := services.NewUserService(db, rm, hasher, ss, logger)

	user, err := us.Register(ctx, userName, pw, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created user %s (%s)\n", user.UserName, user.ID)
	return nil
}

// readPassword reads without echo from a terminal and falls back to a plain
// line read when stdin is piped.
func readPassword(in *os.File, reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
