package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
	"github.com/zenGate-Global/wedding-admin/platform/go/storage"
)

const (
	MaxExportRows  = 10000
	CSVContentType = "text/csv; charset=utf-8"
)

var exportHeader = []string{
	"RSVP ID",
	"Guest First Name",
	"Guest Last Name",
	"Guest Email",
	"Event Name",
	"Activity Name",
	"Status",
	"Guest Count",
	"Dietary Notes",
	"Special Requirements",
	"Notes",
	"Responded At",
	"Created At",
}

type ExportFilter struct {
	GuestID    *uuid.UUID
	EventID    *uuid.UUID
	ActivityID *uuid.UUID
	Status     *string
}

// Export is a rendered CSV. ArchiveErr is set when archiving failed; the export itself is still usable.
type Export struct {
	Filename   string
	Data       []byte
	Rows       int
	Archived   *storage.ObjectLocation
	ArchiveErr error
}

func (s *service) ExportRSVPs(ctx context.Context, filter ExportFilter) (Export, error) {
	if filter.Status != nil {
		switch *filter.Status {
		case "pending", "attending", "declined", "maybe":
		default:
			return Export{}, result.InvalidField("status", "status must be one of [pending attending declined maybe]")
		}
	}

	rows, err := s.repo.ExportRows(ctx, persistence.RSVPFilter(filter), MaxExportRows)
	if err != nil {
		return Export{}, lifecycle.StoreError(err, "RSVP")
	}

	data, err := renderCSV(rows)
	if err != nil {
		return Export{}, result.Unknown(fmt.Errorf("render rsvp export: %w", err))
	}

	now := s.now().UTC()
	export := Export{
		Filename: fmt.Sprintf("rsvps-export-%s.csv", now.Format(time.DateOnly)),
		Data:     data,
		Rows:     len(rows),
	}

	if s.archive != nil {
		key := fmt.Sprintf("exports/rsvps/%s.csv", now.Format("20060102T150405Z"))
		loc, err := s.archive.Put(ctx, key, CSVContentType, data)
		if err != nil {
			export.ArchiveErr = err
		} else {
			export.Archived = &loc
		}
	}
	return export, nil
}

func renderCSV(rows []persistence.RSVPExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		guestCount := row.GuestCount
		if guestCount < 1 {
			guestCount = 1
		}
		record := []string{
			row.ID.String(),
			row.GuestFirstName,
			row.GuestLastName,
			deref(row.GuestEmail),
			deref(row.EventName),
			deref(row.ActivityName),
			row.Status,
			strconv.Itoa(guestCount),
			deref(row.DietaryNotes),
			deref(row.SpecialRequirements),
			deref(row.Notes),
			formatTime(row.RespondedAt),
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
