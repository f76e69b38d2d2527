// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - session directory subcommands for the datawise CLI.
//
// Handles "datawise sessions [list|delete ID|current]". Listings come
// from the server when reachable and fall back to the local mirror.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/datawise-tui/internal/api"
)

// HandleSessionsCommand dispatches the sessions subcommands.
func HandleSessionsCommand(args Args) error {
	e, err := setup(args)
	if err != nil {
		return err
	}
	defer e.close()

	switch args.Subcommand {
	case "", "list", "ls":
		return listSessions(e)

	case "current":
		fmt.Println(e.sessions.Current())
		return nil

	case "delete", "rm":
		if len(args.Raw) == 0 {
			return errors.New("usage: datawise sessions delete SESSION_ID")
		}
		return deleteSession(e, args.Raw[0])

	default:
		return fmt.Errorf("unknown sessions subcommand %q (try list, current, delete)", args.Subcommand)
	}
}

// listSessions prints the directory, newest first.
func listSessions(e *env) error {
	sessions, err := e.client.ListSessions(context.Background())
	if err != nil {
		// Offline: fall back to the local mirror.
		if e.store == nil {
			return err
		}
		cached, cacheErr := e.store.Sessions()
		if cacheErr != nil || len(cached) == 0 {
			return err
		}
		fmt.Println(warningStyle.Render("server unreachable; showing cached listing"))
		sessions = cached
	} else if e.store != nil {
		_ = e.store.MirrorSessions(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println(metaStyle.Render("no sessions yet"))
		return nil
	}

	current := e.sessions.Current()
	for _, s := range sessions {
		printSessionLine(s, s.ID == current)
	}
	return nil
}

func printSessionLine(s api.SessionInfo, active bool) {
	marker := "  "
	if active {
		marker = successStyle.Render("* ")
	}
	title := s.Title
	if title == "" {
		title = "(untitled)"
	}
	line := fmt.Sprintf("%s%s  %s", marker, s.ID, title)
	if !s.CreatedAt.IsZero() {
		line += metaStyle.Render("  " + s.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println(line)
}

func deleteSession(e *env, id string) error {
	if err := e.client.DeleteSession(context.Background(), id); err != nil {
		return err
	}
	if e.store != nil {
		_ = e.store.DeleteSession(id)
	}
	fmt.Println(successStyle.Render("deleted " + id))
	return nil
}
