package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/3leaps/bucketfs/pkg/adapter"
	"github.com/3leaps/bucketfs/pkg/output"
)

// Output formats.
const (
	formatJSONL = "jsonl"
	formatTable = "table"
	formatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatJSONL, formatTable, formatYAML:
		return nil
	}
	return exitError(foundry.ExitInvalidArgument, "Invalid --output value", fmt.Errorf("expected jsonl, table or yaml, got %q", format))
}

func fileRecord(md *adapter.Metadata) *output.FileRecord {
	return &output.FileRecord{
		Path:         md.Path,
		Dirname:      md.Dirname,
		Type:         string(md.Type),
		Size:         md.Size,
		Mimetype:     md.Mimetype,
		Timestamp:    md.Timestamp,
		StorageClass: md.StorageClass,
		Visibility:   string(md.Visibility),
		Headers:      md.Headers,
	}
}

// writeFiles renders items in format. JSONL output ends with a summary
// record covering the whole command.
func writeFiles(ctx context.Context, w io.Writer, s *session, format string, items []*adapter.Metadata, withURL bool, start time.Time) error {
	switch format {
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "TYPE\tSIZE\tMODIFIED\tPATH")
		for _, md := range items {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", md.Type, sizeColumn(md), timeColumn(md), md.Path)
		}
		return tw.Flush()

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
		return enc.Close()
	}

	jw := output.NewJSONLWriter(w, uuid.New().String(), s.provider)
	defer func() { _ = jw.Close() }()

	sum := &output.SummaryRecord{}
	for _, md := range items {
		rec := fileRecord(md)
		if withURL && md.Type == adapter.TypeFile {
			rec.URL = s.store.GetURL(md.Path)
		}
		if err := jw.WriteFile(ctx, rec); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
		}
		if md.Type == adapter.TypeDir {
			sum.Dirs++
			continue
		}
		sum.Files++
		if md.Size != nil {
			sum.BytesTotal += *md.Size
		}
	}

	elapsed := time.Since(start)
	sum.Duration = elapsed
	sum.DurationHuman = elapsed.Round(time.Millisecond).String()
	if err := jw.WriteSummary(ctx, sum); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}

// writeResult emits the JSONL result record of a mutating command.
func writeResult(ctx context.Context, w io.Writer, s *session, res *output.ResultRecord) error {
	jw := output.NewJSONLWriter(w, uuid.New().String(), s.provider)
	defer func() { _ = jw.Close() }()
	if err := jw.WriteResult(ctx, res); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}

func sizeColumn(md *adapter.Metadata) string {
	if md.Size == nil {
		return "-"
	}
	return strconv.FormatInt(*md.Size, 10)
}

func timeColumn(md *adapter.Metadata) string {
	if md.Timestamp == 0 {
		return "-"
	}
	return time.Unix(md.Timestamp, 0).UTC().Format(time.RFC3339)
}
