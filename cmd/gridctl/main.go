package main

import (
	"context"

	"github.com/alecthomas/kong"
)

type cli struct {
	EnvFile []string `name:"env-file" help:"Env files loaded before reading DATAGRID_* variables (defaults to .env, .env.local)."`
	Mock    bool     `help:"Serve grids from seeded in-memory data instead of the REST backend."`

	List     listCmd     `cmd:"" help:"Fetch one page of a grid and print it as a table."`
	Export   exportCmd   `cmd:"" help:"Export a grid to csv (server first) or xlsx (loaded page)."`
	Scaffold scaffoldCmd `cmd:"" help:"Add an entity grid to a manifest."`
	Session  sessionCmd  `cmd:"" help:"Manage the persisted session token and role."`
}

func main() {
	root := &cli{}
	ctx := kong.Parse(root,
		kong.Name("gridctl"),
		kong.Description("Entity grid utility for go-datagrid backends and manifests."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(root)
	ctx.FatalIfErrorf(err)
}
