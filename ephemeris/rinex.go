package ephemeris

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shandianxiao218/fly-cline/model"
)

// fitInterval is the broadcast-ephemeris fit interval assumed when the
// navigation record does not carry one: elements are valid for two hours
// either side of their reference epoch.
const fitInterval = 2 * time.Hour

// LoadSummary reports what a navigation-file load produced. Mainly useful
// for logging from main().
type LoadSummary struct {
	SatelliteIDs []string
	Skipped      int
}

// LoadNavigationFile reads a RINEX-3 style GNSS navigation file from r and
// stores one ephemeris entry per GPS ("G") or BeiDou ("C") record. Records
// for other systems are counted as skipped, as are records whose numeric
// fields cannot be parsed. When a satellite appears more than once the most
// recently read record wins, matching Store.Put semantics.
//
// Only the orbital fields the propagation needs are extracted; clock
// polynomial terms and accuracy/health flags are ignored. BeiDou records
// are read with their epochs taken as-is: the 14-second BDT offset is not
// corrected, consistent with the leap-second approximation used elsewhere.
func LoadNavigationFile(store *Store, r io.Reader) (*LoadSummary, error) {
	if store == nil {
		return nil, fmt.Errorf("LoadNavigationFile: store is nil")
	}

	scanner := bufio.NewScanner(r)
	summary := &LoadSummary{}

	// Skip the header when present. A file without header labels is
	// accepted too; the first record line terminates the scan.
	var pending string
	hasPending := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "END OF HEADER") {
			break
		}
		if isRecordLine(line) {
			pending = line
			hasPending = true
			break
		}
	}

	for {
		var record string
		if hasPending {
			record = pending
			hasPending = false
		} else {
			if !scanner.Scan() {
				break
			}
			record = scanner.Text()
		}
		if strings.TrimSpace(record) == "" {
			continue
		}
		if !isRecordLine(record) {
			// Stray continuation line; nothing to attach it to.
			summary.Skipped++
			continue
		}

		// Collect continuation lines (they start with a blank column).
		var continuation []string
		for scanner.Scan() {
			line := scanner.Text()
			if isRecordLine(line) || strings.TrimSpace(line) == "" {
				pending = line
				hasPending = isRecordLine(line)
				break
			}
			continuation = append(continuation, line)
		}

		entry, err := parseRecord(record, continuation)
		if err != nil {
			summary.Skipped++
			continue
		}
		if err := store.Put(entry); err != nil {
			return summary, err
		}
		summary.SatelliteIDs = append(summary.SatelliteIDs, entry.SatelliteID)
	}

	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("LoadNavigationFile: %w", err)
	}
	return summary, nil
}

// isRecordLine reports whether the line opens a navigation record: a
// system letter followed by a two-digit PRN.
func isRecordLine(line string) bool {
	if len(line) < 3 {
		return false
	}
	c := line[0]
	return c >= 'A' && c <= 'Z' && line[1] >= '0' && line[1] <= '9' && line[2] >= '0' && line[2] <= '9'
}

// parseRecord extracts one store entry from a record line and its
// continuation lines. GPS and BeiDou LNAV records carry seven continuation
// lines; the orbital parameters sit on the first five.
func parseRecord(record string, continuation []string) (*Entry, error) {
	// Columns 1-23 hold the satellite ID and epoch; the SV clock fields
	// that follow may abut the seconds field when negative, so the epoch
	// is sliced off before any whitespace splitting.
	if len(record) < 23 {
		return nil, fmt.Errorf("short record line %q", record)
	}

	satID := strings.TrimSpace(record[:3])
	switch satID[0] {
	case 'G', 'C':
		// GPS / BeiDou
	default:
		return nil, fmt.Errorf("unsupported system %q", satID)
	}

	epoch, err := parseEpoch(record[3:23])
	if err != nil {
		return nil, err
	}

	if len(continuation) < 5 {
		return nil, fmt.Errorf("record %s: %d continuation lines, want >= 5", satID, len(continuation))
	}

	var orbit [5][4]float64
	for i := 0; i < 5; i++ {
		vals, err := parseDataLine(continuation[i])
		if err != nil {
			return nil, fmt.Errorf("record %s line %d: %w", satID, i+1, err)
		}
		orbit[i] = vals
	}

	// Broadcast orbit layout:
	//   1: IODE      Crs     Delta n   M0
	//   2: Cuc       e       Cus       sqrt(A)
	//   3: Toe       Cic     OMEGA0    Cis
	//   4: i0        Crc     omega     OMEGA DOT
	//   5: IDOT      ...     ...       ...
	elem := model.OrbitalElements{
		Crs:    orbit[0][1],
		DeltaN: orbit[0][2],
		M0:     orbit[0][3],

		Cuc:          orbit[1][0],
		Eccentricity: orbit[1][1],
		Cus:          orbit[1][2],
		RootA:        orbit[1][3],

		Toe:    orbit[2][0],
		Cic:    orbit[2][1],
		Omega0: orbit[2][2],
		Cis:    orbit[2][3],

		I0:       orbit[3][0],
		Crc:      orbit[3][1],
		Omega:    orbit[3][2],
		OmegaDot: orbit[3][3],

		Idot: orbit[4][0],
	}

	return &Entry{
		SatelliteID: satID,
		Elements:    elem,
		Validity: model.ValidityWindow{
			From: epoch.Add(-fitInterval),
			To:   epoch.Add(fitInterval),
		},
	}, nil
}

// parseEpoch reads the six epoch fields (year month day hour min sec)
// from the epoch portion of a record line.
func parseEpoch(s string) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return time.Time{}, fmt.Errorf("epoch %q: %d fields, want 6", s, len(fields))
	}
	var nums [6]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, fmt.Errorf("epoch field %q: %w", f, err)
		}
		nums[i] = n
	}
	if nums[0] < 100 {
		// Two-digit years appear in older files; pivot at 1980.
		if nums[0] >= 80 {
			nums[0] += 1900
		} else {
			nums[0] += 2000
		}
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], nums[4], nums[5], 0, time.UTC), nil
}

// parseDataLine reads up to four D-exponent floats from a continuation
// line. RINEX writes them as D19.12 columns starting at column 5, where a
// negative value's sign abuts the previous column, so fixed-width slicing
// comes first; loosely formatted files fall back to field splitting.
func parseDataLine(line string) ([4]float64, error) {
	if strings.TrimSpace(line) == "" {
		return [4]float64{}, fmt.Errorf("empty data line")
	}

	if out, err := parseFixedColumns(line); err == nil {
		return out, nil
	}

	var out [4]float64
	fields := strings.Fields(line)
	if len(fields) > 4 {
		return out, fmt.Errorf("data line %q: %d fields, want <= 4", line, len(fields))
	}
	for i, f := range fields {
		v, err := parseRINEXFloat(f)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// parseFixedColumns slices a continuation line at the standard 19-character
// column boundaries. Blank trailing columns read as zero; a column that is
// neither blank nor a D-float fails the whole line.
func parseFixedColumns(line string) ([4]float64, error) {
	var out [4]float64
	for i := 0; i < 4; i++ {
		start := 4 + i*19
		if start >= len(line) {
			break
		}
		end := start + 19
		if end > len(line) {
			end = len(line)
		}
		f := strings.TrimSpace(line[start:end])
		if f == "" {
			continue
		}
		v, err := parseRINEXFloat(f)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// parseRINEXFloat parses a FORTRAN-style float where the exponent marker
// may be D instead of E.
func parseRINEXFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "D", "E"), "d", "e")
	return strconv.ParseFloat(s, 64)
}
