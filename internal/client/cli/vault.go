package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/cyphervault/internal/client/backup"
	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/common"
)

func (a *App) Add(ctx context.Context) error {
	site, err := getSimpleText(a.reader, "Site", a.out)
	if err != nil {
		return err
	}
	loginName, err := getSimpleText(a.reader, "Login name", a.out)
	if err != nil {
		return err
	}
	secret, err := getPassword(a.out, "Secret")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	category, err := getSimpleText(a.reader, "Category [PERSONAL, FINANCIAL, SYSTEM]", a.out)
	if err != nil {
		return err
	}

	rec, err := a.vault.AddRecord(ctx, site, loginName, string(secret), strings.ToUpper(category))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Added %s (%s, strength %s).\n", rec.ID, rec.Site, rec.StrengthTier)
	return nil
}

// List prints the records matching query with secrets masked unless
// revealed.
func (a *App) List(query string) error {
	views, err := a.vault.View(query)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(a.out, "No records.")
		return nil
	}
	writeViews(a.out, views)
	return nil
}

func writeViews(w io.Writer, views []models.RecordView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSITE\tLOGIN\tSECRET\tCATEGORY\tSTRENGTH\tCREATED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Site, v.LoginName, v.Secret, v.Category, v.StrengthTier, v.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

// Show flips whether record id's secret is shown and prints the record.
func (a *App) Show(id string) error {
	revealed, err := a.vault.ToggleVisibility(id)
	if err != nil {
		return err
	}

	views, err := a.vault.View("")
	if err != nil {
		return err
	}
	for _, v := range views {
		if v.ID == id {
			writeViews(a.out, []models.RecordView{v})
		}
	}

	if revealed {
		fmt.Fprintln(a.out, "Secret revealed. Run 'show' again to hide it.")
	} else {
		fmt.Fprintln(a.out, "Secret hidden.")
	}
	return nil
}

// Delete removes record id from the vault.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.vault.RemoveRecord(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s.\n", id)
	return nil
}

// Audit starts an asynchronous audit; the result is shown by Report.
func (a *App) Audit(ctx context.Context, id string) error {
	task, err := a.vault.RequestAudit(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Audit of %s started. Type 'report' to see the result.\n", task.RecordID)
	return nil
}

func (a *App) Report() error {
	audit, ok := a.vault.ActiveAudit()
	if !ok {
		if a.vault.Auditing() {
			fmt.Fprintln(a.out, "Audit in progress.")
		} else {
			fmt.Fprintln(a.out, "No audit report. Run 'audit <id>' first.")
		}
		return nil
	}

	res := audit.Result
	fmt.Fprintf(a.out, "Audit report for %s (%s)\n", audit.RecordID, audit.CompletedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Score: %d/100\n", res.Score)
	writeList(a.out, "Vulnerabilities", res.Vulnerabilities)
	writeList(a.out, "Recommendations", res.Recommendations)
	return nil
}

func writeList(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, title+":")
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, it := range items {
		fmt.Fprintln(w, "  - "+it)
	}
}

// Backup exports the sealed vault: "backup [file|s3]" uses the configured
// sinks, "backup url <url>" uploads to a presigned link.
func (a *App) Backup(ctx context.Context, args []string) error {
	target := backupFile
	if len(args) > 0 {
		target = args[0]
	}

	exp, ok := a.backups[target]
	switch {
	case target == backupURL && len(args) == 2:
		exp, ok = backup.NewExporter(a.vault, backup.NewURLSink(a.httpClient, args[1])), true
	case target == backupS3 && !ok:
		fmt.Fprintln(a.out, "S3 backup is not configured.")
		return nil
	}
	if !ok {
		fmt.Fprintln(a.out, "Usage: backup [file|s3|url <url>]")
		return nil
	}

	loc, err := exp.Export(ctx)
	if err != nil {
		a.logger.Error(ctx, "backup failed", "target", target, "error", err)
		return err
	}
	fmt.Fprintf(a.out, "Backup written to %s\n", loc)
	return nil
}

func (a *App) Brief() error {
	a.briefMu.Lock()
	text := a.briefing
	a.briefMu.Unlock()

	if text == "" {
		fmt.Fprintln(a.out, "Threat briefing is still loading.")
		return nil
	}
	fmt.Fprintln(a.out, text)
	return nil
}

// Generate prints a random secret: generate [length] [nosym].
func (a *App) Generate(args []string) error {
	length, symbols := common.DefaultSecretLength, true
	for _, arg := range args {
		if arg == "nosym" {
			symbols = false
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(a.out, "Usage: generate [length] [nosym]")
			return nil
		}
		length = n
	}

	secret, err := common.GenerateSecret(length, symbols)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, secret)
	return nil
}
