// Package scanner extracts structured telemetry from the receiver's
// diagnostic output: song metadata, bit error rate samples, and the
// transmitter location line some stations broadcast.
package scanner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sparkfault/hdrd/internal/geo"
)

// Kind identifies which rule a diagnostic line matched.
type Kind int

const (
	// KindNone means no rule matched; the line is log-only.
	KindNone Kind = iota
	KindTitle
	KindArtist
	KindAlbum
	KindBER
	KindStation
)

// DisplayArtistPlaceholder replaces the display-side artist when the
// canonical artist contains the blocked token. Filenames and history
// always use the canonical text; this is cosmetic only.
const DisplayArtistPlaceholder = "[artist choice not endorsed]"

const blockedArtistToken = "bieber"

// The rules are independent: the label texts do not overlap, so a line
// matches at most one of them.
var (
	reTitle   = regexp.MustCompile(`(?i)Title:\s*(.+)`)
	reArtist  = regexp.MustCompile(`(?i)Artist:\s*(.+)`)
	reAlbum   = regexp.MustCompile(`(?i)Album:\s*(.+)`)
	reBER     = regexp.MustCompile(`BER:\s*([0-9]*\.?[0-9eE+-]+)`)
	reStation = regexp.MustCompile(`(?i)Station location:\s*([0-9.+-]+),\s*([0-9.+-]+),\s*([0-9.+-]+)m`)
)

// Result is the outcome of scanning one line. Text carries the trimmed
// payload for the metadata kinds; DisplayText differs from Text only for
// an artist hit with the cosmetic override applied.
type Result struct {
	Kind        Kind
	Text        string
	DisplayText string
	Percent     float64
	Station     geo.Point
}

// Scan applies the parsing rules to a single diagnostic line. Lines that
// match no rule, or match a rule but fail to parse (BER that is not a
// number, coordinates that are not three floats), come back as KindNone;
// the caller logs those verbatim and moves on.
func Scan(line string) Result {
	if m := reTitle.FindStringSubmatch(line); m != nil {
		text := strings.TrimSpace(m[1])
		return Result{Kind: KindTitle, Text: text, DisplayText: text}
	}

	if m := reArtist.FindStringSubmatch(line); m != nil {
		text := strings.TrimSpace(m[1])
		display := text
		if strings.Contains(strings.ToLower(text), blockedArtistToken) {
			display = DisplayArtistPlaceholder
		}
		return Result{Kind: KindArtist, Text: text, DisplayText: display}
	}

	if m := reAlbum.FindStringSubmatch(line); m != nil {
		text := strings.TrimSpace(m[1])
		return Result{Kind: KindAlbum, Text: text, DisplayText: text}
	}

	if m := reBER.FindStringSubmatch(line); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0 {
			return Result{}
		}
		// The receiver reports a fraction; store and display percent.
		return Result{Kind: KindBER, Percent: v * 100}
	}

	if m := reStation.FindStringSubmatch(line); m != nil {
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lon, err2 := strconv.ParseFloat(m[2], 64)
		alt, err3 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return Result{}
		}
		// All three fields or nothing; a partial station point is useless.
		return Result{Kind: KindStation, Station: geo.Point{Lat: lat, Lon: lon, AltM: alt}}
	}

	return Result{}
}

// FormatBER renders a BER percentage the way the status surfaces show
// it, e.g. "1.500 %".
func FormatBER(percent float64) string {
	return strconv.FormatFloat(percent, 'f', 3, 64) + " %"
}
