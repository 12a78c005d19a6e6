package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type accountService interface {
	CreateAdmin(ctx context.Context, username, password string) error
	ResetPassword(ctx context.Context, username, password string) error
}

type commandLine struct {
	accounts accountService
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - set a new password and force a change at next login")
	fmt.Fprintln(cli.out, "  createadmin -username USERNAME   - create an administrator who must change the password at first login")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "resetpassword":
		username, password, err := cli.credentials("resetpassword", args[2:])
		if err != nil {
			return err
		}
		if err := cli.accounts.ResetPassword(ctx, username, password); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "password reset for %s\n", username)
		return nil
	case "createadmin":
		username, password, err := cli.credentials("createadmin", args[2:])
		if err != nil {
			return err
		}
		if err := cli.accounts.CreateAdmin(ctx, username, password); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "administrator %s created\n", username)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

// credentials parses -username and prompts for the password without echo.
func (cli *commandLine) credentials(command string, args []string) (string, string, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	username := fs.String("username", "", "The account's username. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return "", "", errHelp
	}
	if *username == "" {
		fs.Usage()
		return "", "", errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", "", errHelp
	}
	return *username, string(pwd), nil
}
