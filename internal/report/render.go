package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
)

// PrintTable renders the report as aligned text tables.
func PrintTable(writer io.Writer, r Report) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "REPOSITORY\tLANGUAGE\tPRODUCTION\tTEST\tTOTAL"); err != nil {
		return err
	}
	for _, repo := range r.Repositories {
		if err := writeCounts(tw, repo.Label(), repo.Languages); err != nil {
			return err
		}
	}
	for _, failure := range r.Failures {
		if _, err := fmt.Fprintf(tw, "%s\t-\tcould not be scanned: %s\t\t\n", failure.Repository, failure.Reason); err != nil {
			return err
		}
	}

	if len(r.Teams) > 0 {
		if _, err := fmt.Fprintln(tw, "\nTEAM\tLANGUAGE\tPRODUCTION\tTEST\tTOTAL"); err != nil {
			return err
		}
		for _, team := range r.Teams {
			if err := writeCounts(tw, team.Name, team.Languages); err != nil {
				return err
			}
			if len(team.NotFound) > 0 {
				if _, err := fmt.Fprintf(tw, "%s\tnot found: %s\t\t\t\n", team.Name, joinIDs(team.NotFound)); err != nil {
					return err
				}
			}
		}
	}

	if _, err := fmt.Fprintf(tw, "\nORGANIZATION (%d repositories)\tLANGUAGE\tPRODUCTION\tTEST\tTOTAL\n", r.Organization.Repositories); err != nil {
		return err
	}
	if err := writeCounts(tw, "total", r.Organization.Languages); err != nil {
		return err
	}

	d := r.Distribution
	if _, err := fmt.Fprintf(tw, "\nTEST RATIO\tREPOSITORIES\tMEAN\tMEDIAN\tP90\n-\t%d\t%.4f\t%.4f\t%.4f\n",
		d.Repositories, d.MeanTestRatio, d.MedianTestRatio, d.P90TestRatio); err != nil {
		return err
	}

	var discrepancies, skipped bool
	for _, repo := range r.Repositories {
		discrepancies = discrepancies || len(repo.Discrepancies) > 0
		skipped = skipped || len(repo.Skipped) > 0
	}
	if discrepancies {
		if _, err := fmt.Fprintln(tw, "\nDISCREPANCY\tLANGUAGE\tCOUNTED\tEXTERNAL\t"); err != nil {
			return err
		}
		for _, repo := range r.Repositories {
			for _, d := range repo.Discrepancies {
				if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t\n", repo.Repository, d.Language, d.Counted, d.External); err != nil {
					return err
				}
			}
		}
	}
	if skipped {
		if _, err := fmt.Fprintln(tw, "\nSKIPPED FILE\tREASON\t\t\t"); err != nil {
			return err
		}
		for _, repo := range r.Repositories {
			for _, s := range repo.Skipped {
				if _, err := fmt.Fprintf(tw, "%s/%s\t%s\t\t\t\n", repo.Repository, s.Path, s.Reason); err != nil {
					return err
				}
			}
		}
	}

	return tw.Flush()
}

// PrintDetail renders the rows of the external counting report of every
// repository, with the share of production lines this tool counted for the
// language. Blank and comment lines are only known from the external report.
func PrintDetail(writer io.Writer, r Report, registry *language.Registry) error {
	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)

	var rows int
	for _, repo := range r.Repositories {
		rows += len(repo.External)
	}
	if rows == 0 {
		_, err := fmt.Fprintln(writer, "\nNo external counting report: detail needs --cloc.")
		return err
	}

	if _, err := fmt.Fprintln(tw, "\nREPOSITORY\tLANGUAGE\tFILES\tBLANK\tCOMMENT\tCODE\tPRODUCTION%"); err != nil {
		return err
	}
	for _, repo := range r.Repositories {
		for _, row := range repo.External {
			share := "-"
			if c, ok := repo.Languages[registry.Canonical(row.Language)]; ok && c.Total() > 0 {
				share = fmt.Sprintf("%.1f", float64(c.Production)*100/float64(c.Total()))
			}
			if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				repo.Label(), row.Language, row.Files, row.Blank, row.Comment, row.Code, share); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

func writeCounts(w io.Writer, scope string, counts domain.LanguageCounts) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintf(w, "%s\t(none)\t0\t0\t0\n", scope)
		return err
	}
	for _, lang := range counts.Languages() {
		c := counts[lang]
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", scope, lang, c.Production, c.Test, c.Total()); err != nil {
			return err
		}
	}
	return nil
}

func joinIDs(ids []domain.RepoID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// Marshal encodes the report as indented JSON.
func Marshal(r Report) ([]byte, error) {
	content, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return content, nil
}

// PrintJSON writes the report as indented JSON to writer.
func PrintJSON(writer io.Writer, r Report) error {
	content, err := Marshal(r)
	if err != nil {
		return err
	}
	if _, err := writer.Write(append(content, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
