// Package export writes decoded schedules in machine readable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/macmarek/scheduling-assistant/core/decoder"
)

// CSVHeader lists the columns written by WriteCSV.
var CSVHeader = []string{
	"meeting_id", "team", "start_utc", "end_utc", "discomfort",
	"participant_id", "utc_offset", "local_start", "local_end",
}

// WriteJSON writes the schedule to w as indented JSON.
func WriteJSON(w io.Writer, s *decoder.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes one row per attendee of every placed meeting. Local
// times carry their UTC offset so rows stay unambiguous across midnight.
func WriteCSV(w io.Writer, s *decoder.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range s.Entries {
		for _, a := range e.Attendees {
			rec := []string{
				e.MeetingID,
				e.Team,
				e.Start.Format(time.RFC3339),
				e.End.Format(time.RFC3339),
				strconv.Itoa(e.Discomfort),
				a.ParticipantID,
				decoder.ZoneName(a.UTCOffsetMinutes),
				a.LocalStart.Format(time.RFC3339),
				a.LocalEnd.Format(time.RFC3339),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
