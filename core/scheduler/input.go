package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// Clock is a local time of day in minutes past midnight. It reads "HH:MM"
// strings ("24:00" is the end of the day) or plain minute counts.
type Clock int

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	if hh < 0 || hh > 24 || mm < 0 || mm > 59 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return Clock(hh*60 + mm), nil
}

func (c Clock) String() string {
	if c == timegrid.MinutesPerDay {
		return "24:00"
	}
	return timegrid.FormatClock(int(c))
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := ParseClock(s)
		*c = v
		return err
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("clock: %s is neither HH:MM nor minutes", b)
	}
	*c = Clock(n)
	return nil
}

func (c *Clock) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!int" {
		var v int
		if err := n.Decode(&v); err != nil {
			return err
		}
		*c = Clock(v)
		return nil
	}
	v, err := ParseClock(n.Value)
	*c = v
	return err
}

// MarshalJSON writes the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// Offset is a UTC offset in minutes. It reads "±HH:MM" strings or plain
// minute counts.
type Offset int

// ParseOffset parses a "±HH:MM" offset. A missing sign means east of UTC.
func ParseOffset(s string) (Offset, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "UTC")
	if s == "" || s == "Z" {
		return 0, nil
	}
	sign := 1
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	c, err := ParseClock(s)
	if err != nil {
		return 0, fmt.Errorf("offset: %w", err)
	}
	return Offset(sign * int(c)), nil
}

func (o Offset) String() string {
	sign := "+"
	v := int(o)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + timegrid.FormatClock(v)
}

func (o *Offset) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := ParseOffset(s)
		*o = v
		return err
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("offset: %s is neither ±HH:MM nor minutes", b)
	}
	*o = Offset(n)
	return nil
}

func (o *Offset) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!int" {
		var v int
		if err := n.Decode(&v); err != nil {
			return err
		}
		*o = Offset(v)
		return nil
	}
	v, err := ParseOffset(n.Value)
	*o = v
	return err
}

// MarshalJSON writes the offset as "±HH:MM".
func (o Offset) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

// WindowInput is a local window as found in input files.
type WindowInput struct {
	Start Clock `json:"start" yaml:"start"`
	End   Clock `json:"end" yaml:"end"`
}

func (w WindowInput) window() model.Window {
	return model.Window{Start: int(w.Start), End: int(w.End)}
}

// ParticipantInput describes one participant. Preferred defaults to
// 09:00-17:00.
type ParticipantInput struct {
	ID        string       `json:"id" yaml:"id"`
	UTCOffset Offset       `json:"utc_offset" yaml:"utc_offset"`
	Preferred *WindowInput `json:"preferred,omitempty" yaml:"preferred"`
	Available *WindowInput `json:"available,omitempty" yaml:"available"`
}

// MeetingInput describes one meeting.
type MeetingInput struct {
	ID              string   `json:"id" yaml:"id"`
	Team            string   `json:"team,omitempty" yaml:"team"`
	DurationMinutes int      `json:"duration_minutes" yaml:"duration_minutes"`
	Participants    []string `json:"participants" yaml:"participants"`
}

// Input is the file format of a scheduling request.
type Input struct {
	// Day optionally anchors the request on a date (YYYY-MM-DD).
	Day          string             `json:"day,omitempty" yaml:"day"`
	Participants []ParticipantInput `json:"participants" yaml:"participants"`
	Meetings     []MeetingInput     `json:"meetings" yaml:"meetings"`
}

// Request converts the input into a scheduling request. Field validation
// happens when the request is scheduled.
func (in Input) Request() (Request, error) {
	var req Request
	if in.Day != "" {
		d, err := time.Parse(DayLayout, in.Day)
		if err != nil {
			return req, fmt.Errorf("%w: day %q: %v", model.ErrInvalidInput, in.Day, err)
		}
		req.Day = d
	}
	for _, p := range in.Participants {
		mp := model.Participant{
			ID:               p.ID,
			UTCOffsetMinutes: int(p.UTCOffset),
			Preferred:        model.DefaultWindow,
		}
		if p.Preferred != nil {
			mp.Preferred = p.Preferred.window()
		}
		if p.Available != nil {
			w := p.Available.window()
			mp.Available = &w
		}
		req.Participants = append(req.Participants, mp)
	}
	for _, m := range in.Meetings {
		req.Meetings = append(req.Meetings, model.Meeting{
			ID:              m.ID,
			Team:            m.Team,
			DurationMinutes: m.DurationMinutes,
			Participants:    append([]string(nil), m.Participants...),
		})
	}
	return req, nil
}

// LoadInput reads a request from a JSON or YAML file.
func LoadInput(path string) (Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return Input{}, err
	}
	defer f.Close()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeInput(f, ext)
}

// DecodeInput reads a request from r in the given format.
func DecodeInput(r io.Reader, format string) (Input, error) {
	var in Input
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&in); err != nil {
			return in, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return in, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
	default:
		return in, fmt.Errorf("unsupported input format: %s", format)
	}
	return in, nil
}
