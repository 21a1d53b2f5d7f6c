package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jpalmerr/storewatch"
)

// printStoreList prints stores numbered from 1 in insertion order.
func printStoreList(out io.Writer, stores []storewatch.Store) {
	if len(stores) == 0 {
		fmt.Fprintln(out, "No stores added")
		return
	}
	fmt.Fprintln(out, "Store list:")
	for i, s := range stores {
		fmt.Fprintf(out, "%d. %s\n", i+1, s.Title)
	}
}

// printStoreStatuses is printStoreList with each store's last known status.
func printStoreStatuses(out io.Writer, stores []storewatch.Store) {
	if len(stores) == 0 {
		fmt.Fprintln(out, "No stores added")
		return
	}
	fmt.Fprintln(out, "Store list:")
	for i, s := range stores {
		fmt.Fprintf(out, "%d. %s %s\n", i+1, s.Title, statusColor(s).Sprintf("[%s]", s.StatusLabel()))
	}
}

func statusColor(s storewatch.Store) *color.Color {
	switch {
	case !s.Observed:
		return color.New(color.Faint)
	case s.Status == "OPEN":
		return color.New(color.FgHiGreen)
	case s.Status == "CLOSED":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}
