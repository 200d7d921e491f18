package measurement

import (
	"bufio"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"uvcal/internal/errs"
)

// guardByte terminates parsing when found at the start of a line. Some
// station archives pad raw files with a DOS end-of-file marker.
const guardByte = 0x1a

// headerPattern is the strict section header grammar: type code,
// integration time, dead time, cycle count, day/month/year, a possibly
// multi-word place name, latitude, longitude, temperature, pressure and
// dark count.
var headerPattern = regexp.MustCompile(
	`^(?P<type>[A-Za-z]{2})\s+` +
		`(?P<integration>\d+(?:\.\d+)?)\s+` +
		`(?P<dead>\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)\s+` +
		`(?P<cycles>\d+)\s+` +
		`(?P<day>\d{1,2})\s+(?P<month>\d{1,2})\s+(?P<year>\d{2,4})\s+` +
		`(?P<place>[A-Za-z][A-Za-z.'-]*(?:\s+[A-Za-z.'-]+)*?)\s+` +
		`(?P<lat>-?\d+(?:\.\d+)?)\s+` +
		`(?P<long>-?\d+(?:\.\d+)?)\s+` +
		`(?P<temp>-?\d+(?:\.\d+)?)\s+` +
		`(?P<pressure>\d+(?:\.\d+)?)\s+` +
		`(?P<dark>-?\d+(?:\.\d+)?)\s*$`)

var darkPattern = regexp.MustCompile(`^dark\s+(?P<dark>-?\d+(?:\.\d+)?)\s*$`)

// Parser reads the instrument's multi-section raw measurement format.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "measurement_parser"))}
}

// Parse reads every section from r. The stream is a repetition of
// header line, sample lines, an optional dark correction line followed by a
// second pass of trailing sample lines to average, and an optional end
// sentinel. Parsing stops at EOF or at a guard byte. Any structurally
// invalid header or sample line is fatal.
func (p *Parser) Parse(r io.Reader) ([]*Section, error) {
	lines := newLineReader(r)
	var sections []*Section

	for {
		line, ok := lines.next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		if line[0] == guardByte {
			break
		}

		header, err := parseHeader(line)
		if err != nil {
			return nil, err
		}

		section := &Section{Header: header}
		if err := p.parseBody(lines, section); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	p.logger.Debug("raw file parsed", slog.Int("sections", len(sections)))
	return sections, nil
}

// parseBody consumes sample lines and the optional dark/end trailer for
// one section. A line that is neither a sample, dark nor end line is
// pushed back as the next section's header.
func (p *Parser) parseBody(lines *lineReader, section *Section) error {
	for {
		line, ok := lines.next()
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}
		if line[0] == guardByte {
			lines.pushBack(line)
			return nil
		}
		if line == "end" {
			return nil
		}

		if m := darkPattern.FindStringSubmatch(line); m != nil {
			dark, _ := strconv.ParseFloat(m[1], 64)
			section.Header.Dark = (section.Header.Dark + dark) / 2
			return p.parseSecondPass(lines, section)
		}

		sample, isSample, err := parseSample(line)
		if err != nil {
			return err
		}
		if !isSample {
			// Next section's header.
			lines.pushBack(line)
			return nil
		}
		section.Samples = append(section.Samples, sample)
	}
}

// parseSecondPass reads the re-scan sample lines following a dark line and
// averages them, in reverse order, against the trailing already-parsed
// samples, recomputing each standard deviation. After the pass, remaining
// input without an end sentinel is a format error.
func (p *Parser) parseSecondPass(lines *lineReader, section *Section) error {
	read := 0
	for {
		line, ok := lines.next()
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}
		if line == "end" {
			return nil
		}
		if line[0] == guardByte {
			lines.pushBack(line)
			return nil
		}

		sample, isSample, err := parseSample(line)
		if err != nil {
			return err
		}
		if !isSample {
			return errs.NewFormat("measurement.parse", "expected end sentinel after dark correction pass", line)
		}

		target := len(section.Samples) - 1 - read
		if target < 0 {
			return errs.NewFormat("measurement.parse", "dark correction pass has more samples than the section", line)
		}
		prev := section.Samples[target]
		events := (prev.Events + sample.Events) / 2
		section.Samples[target] = Sample{
			Time:       (prev.Time + sample.Time) / 2,
			Wavelength: prev.Wavelength,
			Step:       (prev.Step + sample.Step) / 2,
			Events:     events,
			Std:        StdForEvents(events),
		}
		read++
	}
}

// parseHeader matches one strict header line.
func parseHeader(line string) (Header, error) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return Header{}, errs.NewFormat("measurement.parse", "malformed section header", line)
	}
	get := func(name string) string {
		return m[headerPattern.SubexpIndex(name)]
	}

	integration, _ := strconv.ParseFloat(get("integration"), 64)
	dead, _ := strconv.ParseFloat(get("dead"), 64)
	cycles, _ := strconv.Atoi(get("cycles"))
	day, _ := strconv.Atoi(get("day"))
	month, _ := strconv.Atoi(get("month"))
	year, _ := strconv.Atoi(get("year"))
	if year < 100 {
		// Two-digit years pivot at 2000; the instrument series started in
		// the nineties.
		if year >= 90 {
			year += 1900
		} else {
			year += 2000
		}
	}
	lat, _ := strconv.ParseFloat(get("lat"), 64)
	long, _ := strconv.ParseFloat(get("long"), 64)
	temp, _ := strconv.ParseFloat(get("temp"), 64)
	pressure, _ := strconv.ParseFloat(get("pressure"), 64)
	dark, _ := strconv.ParseFloat(get("dark"), 64)

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) {
		return Header{}, errs.NewFormat("measurement.parse", "invalid date in section header", line)
	}

	return Header{
		InstrumentType:  get("type"),
		IntegrationTime: integration,
		DeadTime:        dead,
		CycleCount:      cycles,
		Date:            date,
		Place:           strings.TrimSpace(get("place")),
		Latitude:        lat,
		Longitude:       long,
		Temperature:     temp,
		Pressure:        pressure,
		Dark:            dark,
	}, nil
}

// parseSample parses a 4-field sample line: time (minutes since midnight),
// wavelength (tenths of nanometers on disk), step count and event count.
// A line whose fields are not all numeric is not a sample; a numeric line
// with the wrong field count is a format error.
func parseSample(line string) (Sample, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Sample{}, false, nil
	}
	if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
		return Sample{}, false, nil
	}
	if len(fields) != 4 {
		return Sample{}, false, errs.NewFormat("measurement.parse", "sample line must have exactly 4 fields", line)
	}

	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{}, false, errs.NewFormat("measurement.parse", "non-numeric sample field", line)
		}
		vals[i] = v
	}

	return Sample{
		Time:       vals[0],
		Wavelength: vals[1] / 10, // stored as tenths of nanometers
		Step:       vals[2],
		Events:     vals[3],
		Std:        StdForEvents(vals[3]),
	}, true, nil
}

// lineReader yields CRLF-normalized lines with one line of pushback.
type lineReader struct {
	scanner *bufio.Scanner
	pushed  *string
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lineReader{scanner: sc}
}

func (l *lineReader) next() (string, bool) {
	if l.pushed != nil {
		line := *l.pushed
		l.pushed = nil
		return line, true
	}
	if !l.scanner.Scan() {
		return "", false
	}
	return strings.TrimRight(l.scanner.Text(), "\r"), true
}

func (l *lineReader) pushBack(line string) {
	l.pushed = &line
}
