package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-datagrid/pkg/config"
	"github.com/goliatone/go-datagrid/pkg/session"
)

type sessionCmd struct {
	Set   sessionSetCmd   `cmd:"" help:"Persist a bearer token and role."`
	Show  sessionShowCmd  `cmd:"" help:"Print the persisted session."`
	Clear sessionClearCmd `cmd:"" help:"Remove the persisted session."`
}

type sessionSetCmd struct {
	Token string `required:"" help:"Bearer token sent with every request."`
	Role  int    `help:"Numeric role; 0 leaves the role unset."`
}

type sessionShowCmd struct{}

type sessionClearCmd struct{}

func openSession(root *cli) (*session.FileStore, error) {
	cfg, err := config.Load(root.EnvFile...)
	if err != nil {
		return nil, err
	}
	return session.OpenFileStore(cfg.SessionFile)
}

func (cmd *sessionSetCmd) Run(_ context.Context, root *cli) error {
	store, err := openSession(root)
	if err != nil {
		return err
	}
	if err := store.Save(cmd.Token, cmd.Role); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Session saved to %s\n", store.Path())
	return nil
}

func (cmd *sessionShowCmd) Run(_ context.Context, root *cli) error {
	store, err := openSession(root)
	if err != nil {
		return err
	}
	_, hasToken := store.Token()
	role, hasRole := store.Role()
	roleText := "unset"
	if hasRole {
		roleText = fmt.Sprint(role)
	}
	fmt.Fprintf(os.Stdout, "file: %s\ntoken: %t\nrole: %s\n", store.Path(), hasToken, roleText)
	return nil
}

func (cmd *sessionClearCmd) Run(_ context.Context, root *cli) error {
	store, err := openSession(root)
	if err != nil {
		return err
	}
	return store.Clear()
}
