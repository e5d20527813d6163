package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/service"
)

func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// printMediaTypes prints the media types as a table
func printMediaTypes(w io.Writer, media []*domain.MediaType, jsonOutput bool) {
	if jsonOutput {
		if media == nil {
			media = []*domain.MediaType{}
		}
		printJSON(w, media)
		return
	}

	if len(media) == 0 {
		fmt.Fprintln(w, "No media types found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\n")
	fmt.Fprintf(tw, "--\t----\n")
	for _, m := range media {
		fmt.Fprintf(tw, "%d\t%s\n", m.ID, truncate(m.Name, 60))
	}
	tw.Flush()
}

// printImportResult prints the counts of a legacy import
func printImportResult(w io.Writer, res *service.ImportResult, jsonOutput bool) {
	if jsonOutput {
		printJSON(w, map[string]int{
			"agencies": res.Agencies,
			"reports":  res.Reports,
			"skipped":  res.Skipped,
		})
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Agencies:\t%d\n", res.Agencies)
	fmt.Fprintf(tw, "Reports:\t%d\n", res.Reports)
	fmt.Fprintf(tw, "Skipped:\t%d\n", res.Skipped)
	tw.Flush()
}

// printError prints an error message
func printError(w io.Writer, err error, jsonOutput bool) {
	if jsonOutput {
		printJSON(w, map[string]interface{}{
			"error": map[string]interface{}{
				"message": err.Error(),
			},
		})
		return
	}

	fmt.Fprintf(w, "Error: %s\n", err.Error())
}

// printSuccess prints a success message
func printSuccess(w io.Writer, message string, jsonOutput bool) {
	if jsonOutput {
		printJSON(w, map[string]interface{}{
			"message": message,
		})
		return
	}

	fmt.Fprintln(w, message)
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
