package countdown

import "fmt"

// Format selects how RemainingTime renders the remaining seconds.
type Format string

const (
	FormatHHMMSS Format = "hh:mm:ss"
	FormatMMSS   Format = "mm:ss"
)

// UnsupportedFormatError is returned when a format other than
// FormatHHMMSS or FormatMMSS reaches the formatter.
type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q", string(e.Format))
}

// ParseFormat validates a format read from a flag or config file.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatHHMMSS, FormatMMSS:
		return f, nil
	default:
		return "", &UnsupportedFormatError{Format: f}
	}
}

// FormatSeconds renders s as zero-padded clock fields. FormatMMSS drops
// the hour field entirely: minutes are taken modulo the hour, so 3661
// renders as "01:01".
func FormatSeconds(s int, f Format) (string, error) {
	hours := s / 3600
	minutes := (s % 3600) / 60
	seconds := s % 60

	switch f {
	case FormatHHMMSS:
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds), nil
	case FormatMMSS:
		return fmt.Sprintf("%02d:%02d", minutes, seconds), nil
	default:
		return "", &UnsupportedFormatError{Format: f}
	}
}
