package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/neogan74/intent/internal/crime"
)

func clientFrom(c *cli.Context) *Client {
	return NewClient(c.String("server"))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("usage: intentctl %s <%s>", c.Command.Name, name)
	}
	return c.Args().First(), nil
}

func listCommand(c *cli.Context) error {
	crimes, err := clientFrom(c).ListCrimes(c.Context, ListFilter{
		Solved: c.String("solved"),
		Query:  c.String("q"),
		From:   c.String("from"),
		To:     c.String("to"),
	})
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, crimes)
	}

	if len(crimes) == 0 {
		fmt.Fprintln(c.App.Writer, "No crimes recorded")
		return nil
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSOLVED\tTITLE")
	for _, cr := range crimes {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", cr.ID, cr.Date, cr.Solved, cr.Title)
	}
	return tw.Flush()
}

func getCommand(c *cli.Context) error {
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	found, err := clientFrom(c).GetCrime(c.Context, id)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, found)
	}
	printCrime(c.App.Writer, found)
	return nil
}

func printCrime(w io.Writer, cr crime.Crime) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", cr.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", cr.Title)
	fmt.Fprintf(tw, "Date:\t%s\n", cr.Date)
	fmt.Fprintf(tw, "Solved:\t%t\n", cr.Solved)
	if cr.Details != "" {
		fmt.Fprintf(tw, "Details:\t%s\n", cr.Details)
	}
	if cr.HasPhoto() {
		fmt.Fprintf(tw, "Photo:\t%s\n", *cr.Photo)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", cr.CreatedAt)
	fmt.Fprintf(tw, "Updated:\t%s\n", cr.UpdatedAt)
	_ = tw.Flush()
}

func addCommand(c *cli.Context) error {
	draft := crime.New(time.Now())
	draft.Title = c.String("title")
	draft.Details = c.String("details")
	draft.Solved = c.Bool("solved")
	if c.IsSet("date") {
		draft.Date = c.String("date")
	}

	in := draft.Input()
	if c.IsSet("photo") {
		photo := c.String("photo")
		in.Photo = &photo
	}

	saved, err := clientFrom(c).CreateCrime(c.Context, in)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, saved)
	}
	fmt.Fprintf(c.App.Writer, "Crime %s recorded\n", saved.ID)
	return nil
}

func updateCommand(c *cli.Context) error {
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	client := clientFrom(c)

	existing, err := client.GetCrime(c.Context, id)
	if err != nil {
		return err
	}

	in := existing.Input()
	if c.IsSet("title") {
		in.Title = c.String("title")
	}
	if c.IsSet("details") {
		in.Details = c.String("details")
	}
	if c.IsSet("date") {
		in.Date = c.String("date")
	}
	if c.IsSet("solved") {
		in.Solved = c.Bool("solved")
	}
	if c.IsSet("photo") {
		photo := c.String("photo")
		in.Photo = &photo
	}

	saved, err := client.UpdateCrime(c.Context, id, in)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, saved)
	}
	fmt.Fprintf(c.App.Writer, "Crime %s updated\n", saved.ID)
	return nil
}

func deleteCommand(c *cli.Context) error {
	id, err := requireArg(c, "id")
	if err != nil {
		return err
	}
	if err := clientFrom(c).DeleteCrime(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Crime %s deleted\n", id)
	return nil
}

func clearCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return errors.New("refusing to delete every crime without --yes")
	}
	if err := clientFrom(c).ClearCrimes(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "All crimes deleted")
	return nil
}

func statsCommand(c *cli.Context) error {
	stats, err := clientFrom(c).Stats(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, stats)
	}

	lastUpdated := "never"
	if stats.LastUpdated != nil {
		lastUpdated = *stats.LastUpdated
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total:\t%d\n", stats.Total)
	fmt.Fprintf(tw, "Solved:\t%d\n", stats.Solved)
	fmt.Fprintf(tw, "Unsolved:\t%d\n", stats.Unsolved)
	fmt.Fprintf(tw, "With photos:\t%d\n", stats.WithPhotos)
	fmt.Fprintf(tw, "Last updated:\t%s\n", lastUpdated)
	return tw.Flush()
}

func themeCommand(c *cli.Context) error {
	client := clientFrom(c)

	if c.NArg() > 1 {
		return errors.New("usage: intentctl theme [key]")
	}
	if c.NArg() == 0 {
		current, err := client.CurrentTheme(c.Context)
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return printJSON(c.App.Writer, current)
		}
		fmt.Fprintf(c.App.Writer, "%s (%s)\n", current.Name, current.Key)
		return nil
	}

	selected, err := client.SelectTheme(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Theme set to %s\n", selected.Name)
	return nil
}

func themesCommand(c *cli.Context) error {
	list, err := clientFrom(c).ListThemes(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, list)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tKEY\tNAME\tPRIMARY\tBACKGROUND")
	for _, t := range list.Themes {
		marker := ""
		if t.Key == list.Current {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, t.Key, t.Name, t.Colors.Primary, t.Colors.Background)
	}
	return tw.Flush()
}

func backupCreateCommand(c *cli.Context) error {
	name, err := clientFrom(c).CreateBackup(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Backup %s created\n", name)
	return nil
}

func backupListCommand(c *cli.Context) error {
	backups, err := clientFrom(c).ListBackups(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, backups)
	}
	if len(backups) == 0 {
		fmt.Fprintln(c.App.Writer, "No backups")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCREATED")
	for _, b := range backups {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Name, b.Size, b.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func backupRestoreCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: intentctl backup restore <name>")
	}
	name := c.Args().First()
	if err := clientFrom(c).RestoreBackup(c.Context, name); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Backup %s restored\n", name)
	return nil
}

func healthCommand(c *cli.Context) error {
	health, err := clientFrom(c).Health(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, health)
	}
	fmt.Fprintf(c.App.Writer, "%s (version %s, %s storage, %d crimes, up %s)\n",
		health.Status, health.Version, health.Storage.Engine, health.Storage.Crimes, health.Uptime)
	return nil
}
